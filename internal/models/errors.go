package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrConflict = errors.New("resource conflict, item already exists")

// ErrInsufficientBalance aborts a booking before any carrier call is made.
var ErrInsufficientBalance = errors.New("wallet balance is lower than the quoted amount")

// ErrNoRateCard indicates no slab table exists for a (carrier, mode, zone) key.
var ErrNoRateCard = errors.New("no rate card configured for carrier, mode and zone")

// ErrCarrierUnavailable wraps any carrier-side transport or API failure.
// Adapters return it instead of leaking raw HTTP errors across the boundary.
var ErrCarrierUnavailable = errors.New("carrier API unavailable")

// ErrUnknownCarrier is returned when no adapter is registered for a carrier code.
var ErrUnknownCarrier = errors.New("no adapter registered for carrier")
