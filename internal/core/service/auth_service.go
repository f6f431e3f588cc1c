package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/metrics"
	"github.com/eventos/reservas-api/internal/core/ports"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	defaultBcryptCost = 10
)

// AuthOptions configures token signing, admin gating and password hashing.
type AuthOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	// AdminCode must be supplied to register an admin. Empty disables admin
	// self-registration entirely.
	AdminCode  string
	BcryptCost int
}

// AuthService implements registration, login and session token verification.
type AuthService struct {
	repo       ports.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	adminCode  string
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

// sessionClaims is the JWT payload. Subject holds the user id.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(repo ports.UserRepository, opts AuthOptions, log zerolog.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = defaultBcryptCost
	}
	return &AuthService{
		repo:       repo,
		jwtSecret:  []byte(opts.JWTSecret),
		tokenTTL:   opts.TokenTTL,
		adminCode:  opts.AdminCode,
		bcryptCost: opts.BcryptCost,
		log:        log,
		now:        time.Now,
	}
}

// Register creates an account. The admin role needs the configured admin code.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: nombre, correo and password are required", domain.ErrValidation)
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.adminCodeMatches(in.AdminCode) {
		s.log.Warn().Str("email", email).Msg("admin registration rejected: wrong admin code")
		return nil, fmt.Errorf("%w: incorrect admin code", domain.ErrForbidden)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	// The unique index still guards against a concurrent registration that
	// slipped past the lookup; the repository reports it as ErrConflict.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(role).Inc()
	s.log.Info().Int64("user_id", user.ID).Str("role", role).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a signed session token. Unknown
// emails and wrong passwords both surface as ErrAuthentication.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: correo and password are required", domain.ErrValidation)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("unknown_email").Inc()
			s.log.Info().Str("email", email).Msg("login failed: unknown email")
			return nil, fmt.Errorf("%w: credentials incorrect", domain.ErrAuthentication)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("bad_password").Inc()
		s.log.Info().Int64("user_id", user.ID).Msg("login failed: password incorrect")
		return nil, fmt.Errorf("%w: password incorrect", domain.ErrAuthentication)
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("login: sign token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return &ports.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ParseToken verifies signature, algorithm and expiry of a session token.
func (s *AuthService) ParseToken(token string) (*ports.Claims, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrAuthentication)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token subject", domain.ErrAuthentication)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token role", domain.ErrAuthentication)
	}

	return &ports.Claims{UserID: id, Email: claims.Email, Role: role}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) adminCodeMatches(code string) bool {
	if s.adminCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) == 1
}
