package tracking

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"courier-broker/internal/carriers"
	"courier-broker/internal/models"
	"courier-broker/pkg/notification"
)

// ServiceInterface defines the tracking synchronizer operations.
type ServiceInterface interface {
	// Track fetches live carrier tracking for an AWB and folds new events
	// into the stored shipment history.
	Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error)
}

type service struct {
	repo     RepositoryInterface
	registry *carriers.Registry
	notifier notification.Notifier
	now      func() time.Time
}

func NewService(repo RepositoryInterface, registry *carriers.Registry, notifier notification.Notifier) ServiceInterface {
	return &service{
		repo:     repo,
		registry: registry,
		notifier: notifier,
		now:      time.Now,
	}
}

// Track pulls the carrier feed and synchronizes it with the stored history.
// Manual bookings and carrier outages degrade to the stored history with a
// manual-check flag instead of failing the request.
func (s *service) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	shipment, err := s.repo.FindByAWB(ctx, awb)
	if err != nil {
		return nil, fmt.Errorf("service.Track: %w", err)
	}

	if shipment.BookingType == models.BookingManualRequired {
		return storedSnapshot(shipment, true,
			"This booking was placed manually. Check the carrier portal directly for live tracking."), nil
	}

	adapter, err := s.registry.Get(shipment.Carrier)
	if err != nil {
		return nil, fmt.Errorf("service.Track: %w", err)
	}
	snap, err := adapter.Track(ctx, awb)
	if err != nil {
		log.Printf("tracking: carrier %s feed unavailable for %s, serving stored history: %v",
			shipment.Carrier, awb, err)
		return storedSnapshot(shipment, true,
			fmt.Sprintf("Live tracking from %s is temporarily unavailable. Showing last known history.", shipment.Carrier)), nil
	}
	if snap.ManualCheck {
		// Local-only carriers have no feed; their snapshot already carries
		// the portal instructions.
		snap.Status = shipment.Status
		snap.Events = shipment.Events
		return snap, nil
	}

	if err := s.sync(ctx, shipment, snap); err != nil {
		return nil, fmt.Errorf("service.Track: %w", err)
	}

	snap.Status = shipment.Status
	snap.Events = shipment.Events
	return snap, nil
}

// sync folds the carrier snapshot into the shipment: new events are appended,
// the merged history is kept newest first, and the status advances. Delivered
// is terminal; the transition into it fires exactly once, stamps the delivery
// time and cascades to the owning order.
func (s *service) sync(ctx context.Context, shipment *models.Shipment, snap *models.TrackingSnapshot) error {
	merged, added := mergeEvents(shipment.Events, snap.Events)
	if len(added) > 0 {
		if err := s.repo.AppendEvents(ctx, shipment.ID, added); err != nil {
			return err
		}
		shipment.Events = merged
	}

	if snap.Status == "" || snap.Status == shipment.Status || shipment.Status == models.ShipmentDelivered {
		return nil
	}

	var deliveredAt *time.Time
	if snap.Status == models.ShipmentDelivered {
		at := s.now()
		if len(merged) > 0 {
			at = merged[0].Timestamp
		}
		deliveredAt = &at
	}
	if err := s.repo.UpdateStatus(ctx, shipment.ID, shipment.OrderID, snap.Status, deliveredAt); err != nil {
		return err
	}
	shipment.Status = snap.Status
	shipment.DeliveredAt = deliveredAt

	if snap.Status == models.ShipmentDelivered {
		delivered := *shipment
		go s.notifier.ShipmentDelivered(context.Background(), delivered)
	}
	return nil
}

// mergeEvents combines stored and incoming events, treating (timestamp, status)
// as the event identity. The merged slice is sorted newest first; added holds
// only the incoming events not already stored.
func mergeEvents(existing, incoming []models.TrackingEvent) (merged, added []models.TrackingEvent) {
	type key struct {
		at     int64
		status string
	}
	seen := make(map[key]bool, len(existing))
	merged = append(merged, existing...)
	for _, ev := range existing {
		seen[key{ev.Timestamp.UnixNano(), ev.Status}] = true
	}
	for _, ev := range incoming {
		k := key{ev.Timestamp.UnixNano(), ev.Status}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, ev)
		added = append(added, ev)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return merged, added
}

func storedSnapshot(shipment *models.Shipment, manual bool, instructions string) *models.TrackingSnapshot {
	return &models.TrackingSnapshot{
		AWB:          shipment.AWB,
		Carrier:      shipment.Carrier,
		Status:       shipment.Status,
		Events:       shipment.Events,
		ManualCheck:  manual,
		Instructions: instructions,
	}
}
