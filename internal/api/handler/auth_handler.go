package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/ports"
)

const (
	msgRegistered = "Usuario registrado con éxito"
	msgLoggedIn   = "Inicio de sesión exitoso"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name      string `json:"nombre"      validate:"required"`
	Email     string `json:"correo"      validate:"required"`
	Password  string `json:"password"    validate:"required"`
	Role      string `json:"rol"`
	AdminCode string `json:"codigoAdmin"`
}

type loginRequest struct {
	Email    string `json:"correo"   validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message   string       `json:"message"`
	User      *domain.User `json:"usuario"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expira"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  createdResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /registrar [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		AdminCode: req.AdminCode,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createdResponse{Message: msgRegistered, ID: user.ID})
}

// Login authenticates a user and returns a signed session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message:   msgLoggedIn,
		User:      session.User,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC(),
	})
}
