package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"courier-broker/internal/models"

	"github.com/google/uuid"
)

// xpressbeesTokenTTL is the assumed bearer token lifetime; the API does not
// report one, so the adapter refreshes slightly early and retries once on 401.
const xpressbeesTokenTTL = 11 * time.Hour

// Xpressbees talks to the carrier's JSON API with a login-issued bearer token
// cached on the adapter instance.
type Xpressbees struct {
	client   *http.Client
	baseURL  string
	email    string
	password string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewXpressbees(baseURL, email, password string) *Xpressbees {
	return &Xpressbees{
		client:   newHTTPClient(),
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
	}
}

func (x *Xpressbees) Code() models.CarrierCode { return models.CarrierXpressbees }

// login acquires and caches the bearer token.
func (x *Xpressbees) login(ctx context.Context, force bool) (string, error) {
	if x.email == "" {
		return "", fmt.Errorf("xpressbees.login: %w: no credentials configured", models.ErrCarrierUnavailable)
	}

	x.mu.Lock()
	if !force && x.token != "" && time.Now().Before(x.expiry) {
		token := x.token
		x.mu.Unlock()
		return token, nil
	}
	x.mu.Unlock()

	body, _ := json.Marshal(map[string]string{"email": x.email, "password": x.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/users/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("xpressbees.login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("xpressbees.login: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("xpressbees.login: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Status bool   `json:"status"`
		Data   string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("xpressbees.login: decode: %w", err)
	}
	if !out.Status || out.Data == "" {
		return "", fmt.Errorf("xpressbees.login: %w: login rejected", models.ErrCarrierUnavailable)
	}

	x.mu.Lock()
	x.token = out.Data
	x.expiry = time.Now().Add(xpressbeesTokenTTL)
	x.mu.Unlock()
	return out.Data, nil
}

// do executes an authenticated call, re-acquiring the token once on 401.
func (x *Xpressbees) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}

	token, err := x.login(ctx, false)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("xpressbees: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := x.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("xpressbees: %w: %v", models.ErrCarrierUnavailable, err)
		}
		if resp.StatusCode != http.StatusUnauthorized || attempt == 1 {
			return resp, nil
		}
		resp.Body.Close()
		if token, err = x.login(ctx, true); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("xpressbees: %w: unauthorized after token refresh", models.ErrCarrierUnavailable)
}

// Quote calls the courier charge endpoint.
func (x *Xpressbees) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	payload := map[string]any{
		"origin":       route.PickupPincode,
		"destination":  route.DeliveryPincode,
		"weight":       fmt.Sprintf("%.0f", pkg.ChargeableWeight()*1000),
		"payment_type": strings.ToLower(pkg.PaymentMode),
		"order_amount": pkg.DeclaredValue,
	}
	resp, err := x.do(ctx, http.MethodPost, "/courier/serviceability", payload)
	if err != nil {
		return nil, fmt.Errorf("xpressbees.Quote: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xpressbees.Quote: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Status bool `json:"status"`
		Data   []struct {
			Name          string  `json:"name"`
			FreightCharge float64 `json:"freight_charges"`
			CODCharge     float64 `json:"cod_charges"`
			TotalCharge   float64 `json:"total_charges"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("xpressbees.Quote: decode: %w", err)
	}
	if !out.Status || len(out.Data) == 0 {
		return nil, fmt.Errorf("xpressbees.Quote: %w: route not serviceable", models.ErrCarrierUnavailable)
	}

	c := out.Data[0]
	return &models.RateQuote{
		ID:           uuid.NewString(),
		Carrier:      models.CarrierXpressbees,
		CarrierName:  "Xpressbees",
		ServiceType:  models.ServiceSurface,
		Zone:         zone,
		ChargeableKg: pkg.ChargeableWeight(),
		Total:        math.Round(c.TotalCharge),
		Breakdown: models.ChargeBreakdown{
			Base:      c.FreightCharge,
			CODCharge: c.CODCharge,
		},
		EstimatedDays:   models.DefaultTransitDays(models.CarrierXpressbees, zone),
		Source:          models.MethodAPI,
		PaymentMode:     pkg.PaymentMode,
		PickupPincode:   route.PickupPincode,
		DeliveryPincode: route.DeliveryPincode,
	}, nil
}

// Book creates the shipment; the carrier assigns the AWB.
func (x *Xpressbees) Book(ctx context.Context, breq BookRequest) (*models.CarrierBooking, error) {
	payload := map[string]any{
		"order_number":     breq.OrderID,
		"payment_type":     strings.ToLower(breq.Package.PaymentMode),
		"package_weight":   fmt.Sprintf("%.0f", breq.Package.ChargeableWeight()*1000),
		"package_length":   breq.Package.LengthCm,
		"package_breadth":  breq.Package.WidthCm,
		"package_height":   breq.Package.HeightCm,
		"cod_charges":      codAmount(breq.Package),
		"consignee":        map[string]string{"name": breq.ConsigneeName, "phone": breq.ConsigneePhone, "address": breq.DeliveryAddress, "pincode": breq.DeliveryPincode},
		"pickup":           map[string]string{"name": breq.PickupName, "phone": breq.PickupPhone, "pincode": breq.PickupPincode},
		"order_items":      []map[string]any{{"name": breq.ItemDescription, "qty": 1, "price": breq.Package.DeclaredValue}},
		"collectable_amount": codAmount(breq.Package),
	}
	resp, err := x.do(ctx, http.MethodPost, "/shipments2", payload)
	if err != nil {
		return nil, fmt.Errorf("xpressbees.Book: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xpressbees.Book: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Status bool `json:"status"`
		Data   struct {
			AWBNumber string `json:"awb_number"`
			LabelURL  string `json:"label"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("xpressbees.Book: decode: %w", err)
	}
	if !out.Status || out.Data.AWBNumber == "" {
		return nil, fmt.Errorf("xpressbees.Book: %w: booking rejected: %s", models.ErrCarrierUnavailable, out.Message)
	}

	return &models.CarrierBooking{
		AWB:         out.Data.AWBNumber,
		TrackingURL: "https://www.xpressbees.com/track?awb=" + out.Data.AWBNumber,
		CourierName: "Xpressbees",
	}, nil
}

// Track pulls shipment history.
func (x *Xpressbees) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	resp, err := x.do(ctx, http.MethodGet, "/shipments2/track/"+awb, nil)
	if err != nil {
		return manualTrackSnapshot(models.CarrierXpressbees, awb,
			"Xpressbees tracking is unreachable; retry later or check the carrier portal."), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return manualTrackSnapshot(models.CarrierXpressbees, awb,
			fmt.Sprintf("Xpressbees tracking returned status %d; check the carrier portal.", resp.StatusCode)), nil
	}

	var out struct {
		Status bool `json:"status"`
		Data   struct {
			Status  string `json:"status"`
			History []struct {
				StatusCode string `json:"status_code"`
				Location   string `json:"location"`
				EventTime  string `json:"event_time"`
				Message    string `json:"message"`
			} `json:"history"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.Status {
		return manualTrackSnapshot(models.CarrierXpressbees, awb,
			"Xpressbees returned no tracking data; check the carrier portal."), nil
	}

	snap := &models.TrackingSnapshot{
		AWB:     awb,
		Carrier: models.CarrierXpressbees,
		Status:  normalizeXpressbeesStatus(out.Data.Status),
	}
	for _, h := range out.Data.History {
		ts, _ := time.Parse("2006-01-02 15:04:05", h.EventTime)
		snap.Events = append(snap.Events, models.TrackingEvent{
			Status:      normalizeXpressbeesStatus(h.StatusCode),
			Location:    h.Location,
			Timestamp:   ts,
			Description: h.Message,
		})
	}
	return snap, nil
}

func normalizeXpressbeesStatus(s string) string {
	switch strings.ToUpper(s) {
	case "DLV", "DELIVERED":
		return models.ShipmentDelivered
	case "IT", "IN TRANSIT", "OFD", "OUT FOR DELIVERY", "PKD", "PICKED UP":
		return models.ShipmentInTransit
	case "RTO", "RTD", "RETURNED":
		return models.ShipmentReturned
	case "LOST", "UD", "UNDELIVERED":
		return models.ShipmentException
	case "MAN", "MANIFESTED", "BOOKED":
		return models.ShipmentBooked
	default:
		return models.ShipmentInTransit
	}
}
