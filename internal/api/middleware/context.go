package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/eventos/reservas-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

func setClaims(c echo.Context, claims *ports.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRole, claims.Role)
}

// ClaimsFrom returns the session claims injected by Auth. ok is false on
// routes that are not behind Auth.
func ClaimsFrom(c echo.Context) (claims ports.Claims, ok bool) {
	role, _ := c.Get(ctxRole).(string)
	if role == "" {
		return ports.Claims{}, false
	}
	id, _ := c.Get(ctxUserID).(int64)
	email, _ := c.Get(ctxEmail).(string)
	return ports.Claims{UserID: id, Email: email, Role: role}, true
}
