package services

import (
	"context"
	"fmt"
	"time"

	"portfolio-photo-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles admin-console authentication
type AuthService struct {
	adminRepo   *repository.AdminRepository
	jwtSecret   string
	sessionDays int
}

// Session is an authenticated admin session
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthService creates a new auth service
func NewAuthService(adminRepo *repository.AdminRepository, jwtSecret string, sessionDays int) *AuthService {
	return &AuthService{
		adminRepo:   adminRepo,
		jwtSecret:   jwtSecret,
		sessionDays: sessionDays,
	}
}

// SignIn verifies admin credentials and returns a session token
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	expiresAt := time.Now().AddDate(0, 0, s.sessionDays)
	token, err := s.GenerateJWT(admin.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Session{Token: token, Email: admin.Email, ExpiresAt: expiresAt}, nil
}

// GenerateJWT generates a JWT token for an admin
func (s *AuthService) GenerateJWT(adminID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"admin_id": adminID,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the admin ID
func (s *AuthService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	adminID, ok := claims["admin_id"].(string)
	if !ok {
		return "", fmt.Errorf("admin_id not found in token")
	}

	return adminID, nil
}

// GetSession returns the session view for a validated admin ID
func (s *AuthService) GetSession(ctx context.Context, adminID string) (*Session, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &Session{Email: admin.Email}, nil
}
