package models

import "math"

// RateCardEntry holds the slab table for one (carrier, mode, zone) key.
// Slabs are strictly increasing weight breakpoints in kg; Base[i] prices a
// package whose chargeable weight falls at or under Slabs[i], and
// Additional[i] prices each half-kg increment above the last slab.
type RateCardEntry struct {
	Carrier    CarrierCode `json:"carrier"`
	Mode       string      `json:"mode"` // service type, e.g. SURFACE / EXPRESS
	Zone       Zone        `json:"zone"`
	Slabs      []float64   `json:"slabs"`
	Base       []float64   `json:"base"`
	Additional []float64   `json:"additional"`
	CODFlat    float64     `json:"cod_flat"`
	CODPercent float64     `json:"cod_percent"`
}

// OverageStepKg is the billing increment for weight above the last slab.
const OverageStepKg = 0.5

// Price computes the charge for a chargeable weight under this slab table.
// The slab is the smallest breakpoint at or above the weight; weight beyond
// the last slab is billed in half-kg increments rounded up, at that slab's
// additional rate. The COD percentage applies to the pre-COD total, after
// weight charges are summed. The total is rounded to the nearest rupee.
// Pure: identical inputs always produce the identical result.
func (e RateCardEntry) Price(weightKg float64, cod bool) (float64, ChargeBreakdown) {
	idx := len(e.Slabs) - 1
	for i, slab := range e.Slabs {
		if weightKg <= slab {
			idx = i
			break
		}
	}

	var bd ChargeBreakdown
	bd.Base = e.Base[idx]

	last := e.Slabs[len(e.Slabs)-1]
	if weightKg > last {
		increments := math.Ceil((weightKg - last) / OverageStepKg)
		bd.WeightCharge = increments * e.Additional[idx]
	}

	running := bd.Base + bd.WeightCharge
	if cod {
		bd.CODCharge = e.CODFlat + e.CODPercent/100*running
	}

	return math.Round(running + bd.CODCharge), bd
}

// RateCardUpsertRequest is the admin payload for replacing a slab table.
type RateCardUpsertRequest struct {
	Carrier    string    `json:"carrier" validate:"required"`
	Mode       string    `json:"mode" validate:"required"`
	Zone       Zone      `json:"zone" validate:"required"`
	Slabs      []float64 `json:"slabs" validate:"required,min=1"`
	Base       []float64 `json:"base" validate:"required,min=1"`
	Additional []float64 `json:"additional" validate:"required,min=1"`
	CODFlat    float64   `json:"cod_flat" validate:"gte=0"`
	CODPercent float64   `json:"cod_percent" validate:"gte=0"`
}
