package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for Reservation.Date.
const DateLayout = "2006-01-02"

// Reservation is a booking of one provider for one event type on one date.
// Email is a contact address and is not linked to a User.
type Reservation struct {
	ID         int64  `json:"id"`
	ClientName string `json:"nombre_cliente"`
	EventType  string `json:"evento"`
	Provider   string `json:"proveedor"`
	Date       string `json:"fecha"`
	Email      string `json:"correo"`
}

// EventTypeCount is the number of reservations booked for one event type.
type EventTypeCount struct {
	EventType string `json:"evento"`
	Total     int64  `json:"total"`
}

// Normalize trims surrounding whitespace from every field.
func (r *Reservation) Normalize() {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.EventType = strings.TrimSpace(r.EventType)
	r.Provider = strings.TrimSpace(r.Provider)
	r.Date = strings.TrimSpace(r.Date)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate checks that all five fields are present and that Date is a valid
// calendar date. Call Normalize first.
func (r *Reservation) Validate() error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"nombre_cliente", r.ClientName},
		{"evento", r.EventType},
		{"proveedor", r.Provider},
		{"fecha", r.Date},
		{"correo", r.Email},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: all fields are required (missing: %s)", ErrValidation, strings.Join(missing, ", "))
	}

	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: fecha must use the YYYY-MM-DD format", ErrValidation)
	}
	return nil
}
