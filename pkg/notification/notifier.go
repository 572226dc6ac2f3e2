// Package notification emits booking and delivery domain events as email.
// Delivery itself is a collaborator concern: callers fire events and move on.
package notification

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"courier-broker/internal/models"
)

// Notifier receives domain events from the orchestrators.
type Notifier interface {
	// BookingConfirmed fires after a booking settles, automated or manual.
	BookingConfirmed(ctx context.Context, userID string, result models.BookingResult)
	// ManualBookingRequired alerts operations to pick up a placeholder booking.
	ManualBookingRequired(ctx context.Context, result models.BookingResult)
	// ShipmentDelivered fires on the one-shot delivered transition.
	ShipmentDelivered(ctx context.Context, shipment models.Shipment)
}

// SESNotifier sends through Amazon SES.
type SESNotifier struct {
	client *sesv2.Client
	sender string
	ops    string
}

// NewSESNotifier builds the SES-backed notifier, or a Noop when sender/region
// are not configured.
func NewSESNotifier(ctx context.Context, region, sender, ops string) Notifier {
	if region == "" || sender == "" {
		return Noop{}
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Printf("notification: SES unavailable, falling back to noop: %v", err)
		return Noop{}
	}
	return &SESNotifier{
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
		ops:    ops,
	}
}

func (n *SESNotifier) send(ctx context.Context, to, subject, body string) {
	if to == "" {
		return
	}
	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
			},
		},
	})
	if err != nil {
		log.Printf("notification: send failed: %v", err)
	}
}

func (n *SESNotifier) BookingConfirmed(ctx context.Context, userID string, result models.BookingResult) {
	n.send(ctx, n.ops, "Shipment booked",
		fmt.Sprintf("Booking for user %s settled as %s (AWB %s, debited %.2f).",
			userID, result.BookingType, result.AWB, result.AmountDebited))
}

func (n *SESNotifier) ManualBookingRequired(ctx context.Context, result models.BookingResult) {
	n.send(ctx, n.ops, "Manual booking required",
		fmt.Sprintf("Reference %s needs a manual carrier booking. %s",
			result.ManualReference, result.Instructions))
}

func (n *SESNotifier) ShipmentDelivered(ctx context.Context, shipment models.Shipment) {
	n.send(ctx, n.ops, "Shipment delivered",
		fmt.Sprintf("Shipment %s (AWB %s) was delivered.", shipment.ID, shipment.AWB))
}

// Noop swallows all events.
type Noop struct{}

func (Noop) BookingConfirmed(context.Context, string, models.BookingResult) {}
func (Noop) ManualBookingRequired(context.Context, models.BookingResult)    {}
func (Noop) ShipmentDelivered(context.Context, models.Shipment)             {}
