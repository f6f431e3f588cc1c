package handler

import (
	"strings"

	"github.com/eventos/reservas-api/internal/core/ports"
)

// reservationRequest accepts both the Spanish field names used by the web
// client and their camelCase aliases. The Spanish name wins when both are sent.
type reservationRequest struct {
	ClientName      string `json:"nombre_cliente"`
	ClientNameAlias string `json:"clientName"`
	EventType       string `json:"evento"`
	EventTypeAlias  string `json:"eventType"`
	Provider        string `json:"proveedor"`
	ProviderAlias   string `json:"provider"`
	Date            string `json:"fecha"`
	DateAlias       string `json:"date"`
	Email           string `json:"correo"`
	EmailAlias      string `json:"email"`
}

// reservationFields is the resolved, trimmed and validated view of a
// reservationRequest.
type reservationFields struct {
	ClientName string `json:"nombre_cliente" validate:"required"`
	EventType  string `json:"evento"         validate:"required"`
	Provider   string `json:"proveedor"      validate:"required"`
	Date       string `json:"fecha"          validate:"required,datetime=2006-01-02"`
	Email      string `json:"correo"         validate:"required"`
}

func (r reservationRequest) fields() reservationFields {
	return reservationFields{
		ClientName: firstNonEmpty(r.ClientName, r.ClientNameAlias),
		EventType:  firstNonEmpty(r.EventType, r.EventTypeAlias),
		Provider:   firstNonEmpty(r.Provider, r.ProviderAlias),
		Date:       firstNonEmpty(r.Date, r.DateAlias),
		Email:      firstNonEmpty(r.Email, r.EmailAlias),
	}
}

func (f reservationFields) input() ports.ReservationInput {
	return ports.ReservationInput{
		ClientName: f.ClientName,
		EventType:  f.EventType,
		Provider:   f.Provider,
		Date:       f.Date,
		Email:      f.Email,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// firstNonEmpty returns the first value that is not blank, trimmed.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
