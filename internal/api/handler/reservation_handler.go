package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventos/reservas-api/internal/core/ports"
)

const (
	msgReservationCreated = "Reserva guardada con éxito"
	msgReservationUpdated = "Reserva actualizada con éxito"
	msgReservationDeleted = "Reserva eliminada con éxito"

	headerIdempotencyKey = "Idempotency-Key"
)

// ReservationHandler handles HTTP requests for reservation operations.
type ReservationHandler struct {
	service ports.ReservationService
}

func NewReservationHandler(service ports.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// List handles GET /reservas.
//
// @Summary      List all reservations
// @Tags         reservas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Reservation
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /reservas [get]
func (h *ReservationHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /reservas.
//
// @Summary      Book a reservation
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      reservationRequest  true   "Reservation details"
// @Success      200              {object}  createdResponse
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /reservas [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	fields, err := bindReservation(c)
	if err != nil {
		return err
	}

	created, err := h.service.Create(c.Request().Context(), fields.input(), c.Request().Header.Get(headerIdempotencyKey))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createdResponse{Message: msgReservationCreated, ID: created.ID})
}

// Update handles PUT /reservas/:id. Every field must be sent.
//
// @Summary      Replace a reservation
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Reservation id"
// @Param        body  body      reservationRequest  true  "Full reservation"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /reservas/{id} [put]
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	fields, err := bindReservation(c)
	if err != nil {
		return err
	}

	if _, err := h.service.Update(c.Request().Context(), id, fields.input()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgReservationUpdated})
}

// Delete handles DELETE /reservas/:id.
//
// @Summary      Delete a reservation
// @Tags         reservas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Reservation id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /reservas/{id} [delete]
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgReservationDeleted})
}

// Summary handles GET /reservas/resumen: reservation counts per event type.
//
// @Summary      Reservations per event type
// @Tags         reservas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.EventTypeCount
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /reservas/resumen [get]
func (h *ReservationHandler) Summary(c echo.Context) error {
	counts, err := h.service.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

func bindReservation(c echo.Context) (reservationFields, error) {
	var req reservationRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return reservationFields{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	fields := req.fields()
	if err := c.Validate(&fields); err != nil {
		return reservationFields{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return fields, nil
}

func reservationID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}
	return id, nil
}
