package carriers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"courier-broker/internal/models"
)

// awbBatchSize is how many waybills one pool refill fetches.
const awbBatchSize = 10

// EcomExpress prices from local configuration but manifests through the
// carrier API. The carrier does not assign waybills at manifest time: the
// adapter pre-fetches a batch of AWBs and attaches one to each booking.
type EcomExpress struct {
	client  *http.Client
	baseURL string
	user    string
	secret  string

	mu      sync.Mutex
	awbPool []string
}

func NewEcomExpress(baseURL, user, secret string) *EcomExpress {
	return &EcomExpress{
		client:  newHTTPClient(),
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		secret:  secret,
	}
}

func (e *EcomExpress) Code() models.CarrierCode { return models.CarrierEcomExpress }

func (e *EcomExpress) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	return localQuote(models.CarrierEcomExpress, "Ecom Express", pkg, route, zone)
}

// nextAWB pops a waybill from the pool, refilling it from the carrier when empty.
func (e *EcomExpress) nextAWB(ctx context.Context) (string, error) {
	e.mu.Lock()
	if len(e.awbPool) > 0 {
		awb := e.awbPool[0]
		e.awbPool = e.awbPool[1:]
		e.mu.Unlock()
		return awb, nil
	}
	e.mu.Unlock()

	if e.user == "" {
		return "", fmt.Errorf("ecomexpress.nextAWB: %w: no credentials configured", models.ErrCarrierUnavailable)
	}

	form := url.Values{}
	form.Set("username", e.user)
	form.Set("password", e.secret)
	form.Set("count", fmt.Sprintf("%d", awbBatchSize))
	form.Set("type", "EXPP")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/apiv2/fetch_awb/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ecomexpress.nextAWB: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ecomexpress.nextAWB: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ecomexpress.nextAWB: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Success bool     `json:"success"`
		AWB     []string `json:"awb"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ecomexpress.nextAWB: decode: %w", err)
	}
	if !out.Success || len(out.AWB) == 0 {
		return "", fmt.Errorf("ecomexpress.nextAWB: %w: empty AWB batch", models.ErrCarrierUnavailable)
	}

	e.mu.Lock()
	e.awbPool = append(e.awbPool, out.AWB[1:]...)
	e.mu.Unlock()
	return out.AWB[0], nil
}

// Book attaches a pooled AWB and manifests the shipment.
func (e *EcomExpress) Book(ctx context.Context, breq BookRequest) (*models.CarrierBooking, error) {
	awb, err := e.nextAWB(ctx)
	if err != nil {
		return nil, fmt.Errorf("ecomexpress.Book: %w", err)
	}

	manifest, _ := json.Marshal([]map[string]any{{
		"AWB_NUMBER":     awb,
		"ORDER_NUMBER":   breq.OrderID,
		"PRODUCT":        paymentProduct(breq.Package),
		"CONSIGNEE":      breq.ConsigneeName,
		"MOBILE":         breq.ConsigneePhone,
		"ADDRESS_LINE1":  breq.DeliveryAddress,
		"DESTINATION_PINCODE": breq.DeliveryPincode,
		"PICKUP_NAME":    breq.PickupName,
		"PICKUP_MOBILE":  breq.PickupPhone,
		"PICKUP_PINCODE": breq.PickupPincode,
		"ITEM_DESCRIPTION": breq.ItemDescription,
		"DECLARED_VALUE": breq.Package.DeclaredValue,
		"ACTUAL_WEIGHT":  breq.Package.ChargeableWeight(),
		"COLLECTABLE_VALUE": codAmount(breq.Package),
	}})

	form := url.Values{}
	form.Set("username", e.user)
	form.Set("password", e.secret)
	form.Set("json_input", string(manifest))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/apiv2/manifest_awb/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ecomexpress.Book: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecomexpress.Book: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ecomexpress.Book: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Shipments []struct {
			Success bool   `json:"success"`
			Reason  string `json:"reason"`
		} `json:"shipments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ecomexpress.Book: decode: %w", err)
	}
	if len(out.Shipments) == 0 || !out.Shipments[0].Success {
		reason := "manifest rejected"
		if len(out.Shipments) > 0 {
			reason = out.Shipments[0].Reason
		}
		return nil, fmt.Errorf("ecomexpress.Book: %w: %s", models.ErrCarrierUnavailable, reason)
	}

	return &models.CarrierBooking{
		AWB:         awb,
		TrackingURL: "https://ecomexpress.in/tracking/?awb_field=" + awb,
		CourierName: "Ecom Express",
	}, nil
}

// Track pulls scan history from the carrier API.
func (e *EcomExpress) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	if e.user == "" {
		return manualTrackSnapshot(models.CarrierEcomExpress, awb,
			"Ecom Express API not configured; track manually at https://ecomexpress.in/tracking/."), nil
	}

	form := url.Values{}
	form.Set("username", e.user)
	form.Set("password", e.secret)
	form.Set("awb", awb)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/apiv2/track_me/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ecomexpress.Track: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return manualTrackSnapshot(models.CarrierEcomExpress, awb,
			"Ecom Express tracking is unreachable; retry later or check the carrier portal."), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return manualTrackSnapshot(models.CarrierEcomExpress, awb,
			fmt.Sprintf("Ecom Express tracking returned status %d; check the carrier portal.", resp.StatusCode)), nil
	}

	var out struct {
		Shipment struct {
			Status string `json:"status"`
			Scans  []struct {
				Status   string `json:"status"`
				Location string `json:"location"`
				ScanDate string `json:"updated_on"`
				Comment  string `json:"reason_code_description"`
			} `json:"scans"`
		} `json:"shipment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return manualTrackSnapshot(models.CarrierEcomExpress, awb,
			"Ecom Express returned no tracking data; check the carrier portal."), nil
	}

	snap := &models.TrackingSnapshot{
		AWB:     awb,
		Carrier: models.CarrierEcomExpress,
		Status:  normalizeEcomStatus(out.Shipment.Status),
	}
	for _, s := range out.Shipment.Scans {
		ts, _ := time.Parse("02-01-2006 15:04", s.ScanDate)
		snap.Events = append(snap.Events, models.TrackingEvent{
			Status:      normalizeEcomStatus(s.Status),
			Location:    s.Location,
			Timestamp:   ts,
			Description: s.Comment,
		})
	}
	return snap, nil
}

func normalizeEcomStatus(s string) string {
	switch strings.ToUpper(s) {
	case "DELIVERED":
		return models.ShipmentDelivered
	case "IN TRANSIT", "OUT FOR DELIVERY", "SHIPMENT PICKED UP", "BAGGED":
		return models.ShipmentInTransit
	case "RTO", "RETURNED TO ORIGIN":
		return models.ShipmentReturned
	case "UNDELIVERED", "LOST", "DAMAGED":
		return models.ShipmentException
	case "SOFT DATA UPLOADED", "MANIFESTED":
		return models.ShipmentBooked
	default:
		return models.ShipmentInTransit
	}
}

func paymentProduct(p models.Package) string {
	if p.IsCOD() {
		return "COD"
	}
	return "PPD"
}
