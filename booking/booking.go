// Package booking integrates opaque third-party reservation services.
//
// The service contract is two calls: search for options matching the
// user's criteria, then confirm a chosen option with proof of payment.
// Failures are wrapped as EXTERNAL_SERVICE errors so the orchestrator
// treats them as transient.
package booking

import (
	"context"
	"time"
)

// Criteria describes what the user wants to book.
type Criteria struct {
	// Kind is the reservation type (e.g. "hotel", "restaurant", "flight").
	Kind string `json:"kind"`

	// Query is the free-form description of what to search for.
	Query string `json:"query"`

	// Date is the target date (YYYY-MM-DD).
	Date string `json:"date,omitempty"`

	// Guests is the party size.
	Guests int `json:"guests,omitempty"`

	// MaxPrice caps the unit price (0 = no cap).
	MaxPrice float64 `json:"max_price,omitempty"`
}

// Option is one bookable result from a search.
type Option struct {
	// ID is the provider's option identifier, required to confirm.
	ID string `json:"id"`

	// Name describes the option.
	Name string `json:"name"`

	// Price is the total price.
	Price float64 `json:"price"`

	// Start and End are the occupied time window (HH:MM).
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Details carries provider-specific fields untouched.
	Details map[string]string `json:"details,omitempty"`
}

// Confirmation is the provider's acknowledgement of a booking.
type Confirmation struct {
	// Reference is the provider's booking reference.
	Reference string `json:"reference"`

	// OptionID is the confirmed option.
	OptionID string `json:"option_id"`

	// Status is the provider-reported state (e.g. "confirmed").
	Status string `json:"status"`

	// ConfirmedAt is when the provider accepted the booking.
	ConfirmedAt time.Time `json:"confirmed_at"`

	// Details carries provider-specific fields untouched.
	Details map[string]string `json:"details,omitempty"`
}

// Searcher finds bookable options.
type Searcher interface {
	// Search returns options matching the criteria, best first.
	Search(ctx context.Context, criteria Criteria) ([]Option, error)
}

// Confirmer finalizes a booking.
type Confirmer interface {
	// Confirm books an option. paymentProof is an opaque token from the
	// payment flow.
	Confirm(ctx context.Context, optionID, paymentProof string) (*Confirmation, error)
}

// Service combines search and confirmation.
type Service interface {
	Searcher
	Confirmer
}
