package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"courier-broker/internal/models"

	"github.com/google/uuid"
)

// Delhivery is the largest integration: a retail (B2C) rate and manifest API
// authenticated by a static token, plus a separate enterprise (B2B) freight
// estimator behind its own JWT login. Token state is owned by the adapter
// instance and guarded by a mutex, never process-wide.
type Delhivery struct {
	client  *http.Client
	baseURL string
	token   string

	b2bURL    string
	b2bUser   string
	b2bSecret string

	mu        sync.Mutex
	b2bToken  string
	b2bExpiry time.Time
}

// NewDelhivery builds the adapter. Empty credentials leave the API paths
// returning errors, which the orchestrator treats as a rate-card fallback.
func NewDelhivery(baseURL, token, b2bURL, b2bUser, b2bSecret string) *Delhivery {
	return &Delhivery{
		client:    newHTTPClient(),
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		b2bURL:    strings.TrimRight(b2bURL, "/"),
		b2bUser:   b2bUser,
		b2bSecret: b2bSecret,
	}
}

func (d *Delhivery) Code() models.CarrierCode { return models.CarrierDelhivery }

// Quote calls the B2C invoice-charges endpoint.
func (d *Delhivery) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	if d.token == "" {
		return nil, fmt.Errorf("delhivery.Quote: %w: no API token configured", models.ErrCarrierUnavailable)
	}

	params := url.Values{}
	params.Set("md", "S")
	params.Set("ss", "Delivered")
	params.Set("o_pin", route.PickupPincode)
	params.Set("d_pin", route.DeliveryPincode)
	params.Set("cgm", fmt.Sprintf("%.0f", pkg.ChargeableWeight()*1000))
	if pkg.IsCOD() {
		params.Set("pt", "COD")
		params.Set("cod", fmt.Sprintf("%.2f", pkg.DeclaredValue))
	} else {
		params.Set("pt", "Pre-paid")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/api/kinko/v1/invoice/charges/.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("delhivery.Quote: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delhivery.Quote: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("delhivery.Quote: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out []struct {
		TotalAmount   float64 `json:"total_amount"`
		ChargeDL      float64 `json:"charge_DL"`
		ChargeCOD     float64 `json:"charge_COD"`
		ChargeFSC     float64 `json:"charge_FSC"`
		ChargedWeight float64 `json:"charged_weight"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("delhivery.Quote: decode: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("delhivery.Quote: %w: empty charge response", models.ErrCarrierUnavailable)
	}

	c := out[0]
	return &models.RateQuote{
		ID:           uuid.NewString(),
		Carrier:      models.CarrierDelhivery,
		CarrierName:  "Delhivery",
		ServiceType:  models.ServiceSurface,
		Zone:         zone,
		ChargeableKg: pkg.ChargeableWeight(),
		Total:        math.Round(c.TotalAmount),
		Breakdown: models.ChargeBreakdown{
			Base:          c.ChargeDL,
			CODCharge:     c.ChargeCOD,
			FuelSurcharge: c.ChargeFSC,
		},
		EstimatedDays:   models.DefaultTransitDays(models.CarrierDelhivery, zone),
		Source:          models.MethodAPI,
		PaymentMode:     pkg.PaymentMode,
		PickupPincode:   route.PickupPincode,
		DeliveryPincode: route.DeliveryPincode,
	}, nil
}

// QuoteB2B prices through the enterprise freight estimator. The orchestrator
// routes here when the partner's API type preference is B2B, falling back to
// the B2C API and then the rate card on failure.
func (d *Delhivery) QuoteB2B(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	token, err := d.b2bLogin(ctx)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]any{
		"origin_pincode":      route.PickupPincode,
		"destination_pincode": route.DeliveryPincode,
		"weight":              pkg.ChargeableWeight(),
		"payment_mode":        pkg.PaymentMode,
		"declared_value":      pkg.DeclaredValue,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.b2bURL+"/freight/estimate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("delhivery.QuoteB2B: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delhivery.QuoteB2B: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("delhivery.QuoteB2B: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Total         float64 `json:"total"`
		FreightCharge float64 `json:"freight_charge"`
		FuelSurcharge float64 `json:"fuel_surcharge"`
		CODCharge     float64 `json:"cod_charge"`
		TATDays       int     `json:"tat_days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("delhivery.QuoteB2B: decode: %w", err)
	}

	days := out.TATDays
	if days == 0 {
		days = models.DefaultTransitDays(models.CarrierDelhivery, zone)
	}
	return &models.RateQuote{
		ID:           uuid.NewString(),
		Carrier:      models.CarrierDelhivery,
		CarrierName:  "Delhivery",
		ServiceType:  models.ServiceSurface,
		Zone:         zone,
		ChargeableKg: pkg.ChargeableWeight(),
		Total:        math.Round(out.Total),
		Breakdown: models.ChargeBreakdown{
			Base:          out.FreightCharge,
			CODCharge:     out.CODCharge,
			FuelSurcharge: out.FuelSurcharge,
		},
		EstimatedDays:   days,
		Source:          models.MethodB2BAPI,
		PaymentMode:     pkg.PaymentMode,
		PickupPincode:   route.PickupPincode,
		DeliveryPincode: route.DeliveryPincode,
	}, nil
}

// b2bLogin returns a cached enterprise JWT, re-acquiring it when expired.
// Refresh is safe to race: the worst case is two logins, both valid.
func (d *Delhivery) b2bLogin(ctx context.Context) (string, error) {
	if d.b2bUser == "" {
		return "", fmt.Errorf("delhivery.b2bLogin: %w: no B2B credentials configured", models.ErrCarrierUnavailable)
	}

	d.mu.Lock()
	if d.b2bToken != "" && time.Now().Before(d.b2bExpiry) {
		token := d.b2bToken
		d.mu.Unlock()
		return token, nil
	}
	d.mu.Unlock()

	body, _ := json.Marshal(map[string]string{
		"username": d.b2bUser,
		"password": d.b2bSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.b2bURL+"/ums/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("delhivery.b2bLogin: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("delhivery.b2bLogin: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("delhivery.b2bLogin: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		JWT       string `json:"jwt"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("delhivery.b2bLogin: decode: %w", err)
	}
	if out.ExpiresIn == 0 {
		out.ExpiresIn = 3600
	}

	d.mu.Lock()
	d.b2bToken = out.JWT
	d.b2bExpiry = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	d.mu.Unlock()
	return out.JWT, nil
}

// Book manifests the shipment; the carrier assigns the waybill.
func (d *Delhivery) Book(ctx context.Context, breq BookRequest) (*models.CarrierBooking, error) {
	if d.token == "" {
		return nil, fmt.Errorf("delhivery.Book: %w: no API token configured", models.ErrCarrierUnavailable)
	}

	payload := map[string]any{
		"shipments": []map[string]any{{
			"order":         breq.OrderID,
			"name":          breq.ConsigneeName,
			"phone":         breq.ConsigneePhone,
			"add":           breq.DeliveryAddress,
			"pin":           breq.DeliveryPincode,
			"payment_mode":  breq.Package.PaymentMode,
			"cod_amount":    codAmount(breq.Package),
			"weight":        breq.Package.ChargeableWeight(),
			"products_desc": breq.ItemDescription,
		}},
		"pickup_location": map[string]any{
			"name":  breq.PickupName,
			"phone": breq.PickupPhone,
			"pin":   breq.PickupPincode,
		},
	}
	data, _ := json.Marshal(payload)
	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/api/cmu/create.json", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("delhivery.Book: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Token "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delhivery.Book: %w: %v", models.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("delhivery.Book: %w: status %d", models.ErrCarrierUnavailable, resp.StatusCode)
	}

	var out struct {
		Success  bool `json:"success"`
		Packages []struct {
			Waybill string `json:"waybill"`
			Status  string `json:"status"`
			Remarks any    `json:"remarks"`
		} `json:"packages"`
		RMK string `json:"rmk"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("delhivery.Book: decode: %w", err)
	}
	if !out.Success || len(out.Packages) == 0 || out.Packages[0].Waybill == "" {
		return nil, fmt.Errorf("delhivery.Book: %w: manifest rejected: %s", models.ErrCarrierUnavailable, out.RMK)
	}

	awb := out.Packages[0].Waybill
	return &models.CarrierBooking{
		AWB:         awb,
		TrackingURL: "https://www.delhivery.com/track/package/" + awb,
		CourierName: "Delhivery",
	}, nil
}

// Track pulls scan history and normalizes it.
func (d *Delhivery) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	if d.token == "" {
		return manualTrackSnapshot(models.CarrierDelhivery, awb,
			"Delhivery API not configured; check the shipment on the carrier portal."), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/api/v1/packages/json/?waybill="+url.QueryEscape(awb), nil)
	if err != nil {
		return nil, fmt.Errorf("delhivery.Track: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return manualTrackSnapshot(models.CarrierDelhivery, awb,
			"Delhivery tracking is unreachable; retry later or check the carrier portal."), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return manualTrackSnapshot(models.CarrierDelhivery, awb,
			fmt.Sprintf("Delhivery tracking returned status %d; check the carrier portal.", resp.StatusCode)), nil
	}

	var out struct {
		ShipmentData []struct {
			Shipment struct {
				Status struct {
					Status string `json:"Status"`
				} `json:"Status"`
				Scans []struct {
					ScanDetail struct {
						Scan         string `json:"Scan"`
						ScannedLoc   string `json:"ScannedLocation"`
						ScanDateTime string `json:"ScanDateTime"`
						Instructions string `json:"Instructions"`
					} `json:"ScanDetail"`
				} `json:"Scans"`
			} `json:"Shipment"`
		} `json:"ShipmentData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.ShipmentData) == 0 {
		return manualTrackSnapshot(models.CarrierDelhivery, awb,
			"Delhivery returned no tracking data; check the carrier portal."), nil
	}

	sh := out.ShipmentData[0].Shipment
	snap := &models.TrackingSnapshot{
		AWB:     awb,
		Carrier: models.CarrierDelhivery,
		Status:  normalizeDelhiveryStatus(sh.Status.Status),
	}
	for _, s := range sh.Scans {
		ts, err := time.Parse("2006-01-02T15:04:05.000000", s.ScanDetail.ScanDateTime)
		if err != nil {
			ts, _ = time.Parse(time.RFC3339, s.ScanDetail.ScanDateTime)
		}
		snap.Events = append(snap.Events, models.TrackingEvent{
			Status:      normalizeDelhiveryStatus(s.ScanDetail.Scan),
			Location:    s.ScanDetail.ScannedLoc,
			Timestamp:   ts,
			Description: s.ScanDetail.Instructions,
		})
	}
	return snap, nil
}

func normalizeDelhiveryStatus(s string) string {
	switch strings.ToUpper(s) {
	case "DELIVERED":
		return models.ShipmentDelivered
	case "IN TRANSIT", "DISPATCHED", "OUT FOR DELIVERY", "PENDING":
		return models.ShipmentInTransit
	case "RTO", "RETURNED", "DTO":
		return models.ShipmentReturned
	case "LOST", "DAMAGED", "NOT PICKED":
		return models.ShipmentException
	case "MANIFESTED":
		return models.ShipmentBooked
	default:
		return models.ShipmentInTransit
	}
}

func codAmount(p models.Package) float64 {
	if p.IsCOD() {
		return p.DeclaredValue
	}
	return 0
}

func manualTrackSnapshot(carrier models.CarrierCode, awb, instructions string) *models.TrackingSnapshot {
	return &models.TrackingSnapshot{
		AWB:          awb,
		Carrier:      carrier,
		Status:       models.ShipmentInTransit,
		ManualCheck:  true,
		Instructions: instructions,
	}
}
