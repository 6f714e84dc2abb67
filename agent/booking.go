package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vinayprograms/plankit/booking"
	"github.com/vinayprograms/plankit/engine"
	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/registry"
)

// BookingConfig holds booking agent settings.
type BookingConfig struct {
	// Section is the side-channel section name for booking records.
	Section string

	// Priority for registry resolution.
	Priority int
}

// DefaultBookingConfig returns configuration with sensible defaults.
func DefaultBookingConfig() BookingConfig {
	return BookingConfig{Section: "bookings", Priority: 10}
}

// Booking reserves third-party services and records the result as a
// plan node plus an entry in the bookings section.
type Booking struct {
	service booking.Service
	engine  *engine.Engine
	config  BookingConfig
}

// NewBooking creates a booking agent.
func NewBooking(service booking.Service, eng *engine.Engine, cfg BookingConfig) *Booking {
	if cfg.Section == "" {
		cfg.Section = DefaultBookingConfig().Section
	}
	return &Booking{service: service, engine: eng, config: cfg}
}

// Capabilities implements Agent.
func (b *Booking) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		AgentID:      "booking",
		Name:         "Booking Agent",
		TaskTypes:    []string{"book"},
		Sections:     []string{b.config.Section},
		Priority:     b.config.Priority,
		ChatEligible: true,
	}
}

// Run implements Agent.
func (b *Booking) Run(ctx context.Context, task Task, report Reporter) (*Result, error) {
	criteria, day, err := parseCriteria(task)
	if err != nil {
		return nil, err
	}

	report(20, "search", "searching providers")
	options, err := b.service.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, planerr.ExternalService("booking",
			fmt.Errorf("no options found for %q", criteria.Query))
	}
	chosen := options[0]

	report(50, "confirm", fmt.Sprintf("confirming %s", chosen.Name))
	confirmation, err := b.service.Confirm(ctx, chosen.ID, task.Params["payment_proof"])
	if err != nil {
		return nil, err
	}

	report(70, "record", "writing the booking into the plan")
	node := plan.NewNode("booking", chosen.Name)
	node.Start = chosen.Start
	node.End = chosen.End
	node.Cost = chosen.Price
	node.Notes = fmt.Sprintf("booked via %s, reference %s", criteria.Kind, confirmation.Reference)

	if _, err := b.engine.Apply(ctx, task.DocumentID, &plan.ChangeSet{
		Name:  "booking",
		Scope: plan.ScopeDay,
		Operations: []plan.ChangeOperation{
			{Op: plan.OpInsert, Day: day, Position: -1, Node: node},
		},
		Reason:  fmt.Sprintf("booked %s (%s)", chosen.Name, confirmation.Reference),
		AgentID: "booking",
		UserID:  task.UserID,
	}); err != nil {
		return nil, err
	}

	// Side-channel record with the full provider response.
	sectionData, err := b.sectionContent(ctx, task.DocumentID, node.ID, chosen, confirmation)
	if err != nil {
		return nil, err
	}
	sectionResult, err := b.engine.UpdateSection(ctx, task.DocumentID, b.config.Section, sectionData, "booking", task.UserID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Message:  fmt.Sprintf("booked %s, reference %s", chosen.Name, confirmation.Reference),
		Document: sectionResult.Document,
		Details: map[string]string{
			"reference": confirmation.Reference,
			"option":    chosen.ID,
			"node":      node.ID,
		},
	}, nil
}

// bookingEntry is one record in the bookings section.
type bookingEntry struct {
	NodeID       string               `json:"node_id"`
	Option       booking.Option       `json:"option"`
	Confirmation booking.Confirmation `json:"confirmation"`
}

// sectionContent appends the new entry to the existing section array.
func (b *Booking) sectionContent(ctx context.Context, documentID, nodeID string, chosen booking.Option, confirmation *booking.Confirmation) (json.RawMessage, error) {
	doc, err := b.engine.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var entries []bookingEntry
	if raw, ok := doc.Sections[b.config.Section]; ok {
		if err := json.Unmarshal(raw, &entries); err != nil {
			entries = nil
		}
	}
	entries = append(entries, bookingEntry{
		NodeID:       nodeID,
		Option:       chosen,
		Confirmation: *confirmation,
	})
	return json.Marshal(entries)
}

// parseCriteria builds search criteria from the task parameters.
func parseCriteria(task Task) (booking.Criteria, int, error) {
	criteria := booking.Criteria{
		Kind:  task.Params["kind"],
		Query: task.Instruction,
		Date:  task.Params["date"],
	}
	if criteria.Kind == "" {
		criteria.Kind = "hotel"
	}

	day := 1
	if v := task.Params["day"]; v != "" {
		if _, err := fmt.Sscanf(v, "%d", &day); err != nil || day < 1 {
			return criteria, 0, planerr.InvalidInput(fmt.Sprintf("invalid day %q", v),
				planerr.WithDocumentID(task.DocumentID))
		}
	}
	return criteria, day, nil
}
