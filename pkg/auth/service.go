package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dealdesk-io/dealdesk-engine/pkg/apperrors"
	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
)

// ErrInvalidCredentials is returned for a wrong email/password pairing.
// Deliberately indistinct about which half was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService manages accounts and access tokens.
type AuthService interface {
	// Signup creates an account and returns it with a fresh access token.
	Signup(ctx context.Context, email, password string) (*models.User, string, error)

	// Login verifies credentials and returns the account with a fresh token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)

	// ValidateToken parses and verifies an access token.
	ValidateToken(token string) (*Claims, error)

	// ValidateRequest extracts and verifies the token from a request,
	// checking the Authorization header first, then the session cookie.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

type authService struct {
	users    repositories.UserRepository
	sessions *SessionStore
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService signing tokens with the given
// secret.
func NewAuthService(users repositories.UserRepository, sessions *SessionStore, secret string, tokenTTL time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *authService) Signup(ctx context.Context, email, password string) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("Created account", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Email: user.Email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	tokenString := bearerToken(r)
	if tokenString == "" && s.sessions != nil {
		tokenString = s.sessions.Token(r)
	}
	if tokenString == "" {
		return nil, "", apperrors.ErrUnauthorized
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, "", err
	}
	return claims, tokenString, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
