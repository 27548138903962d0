package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/config"
	"github.com/jabenka/bank-cards/internal/models"
)

const refreshTokenType = "refresh"

type tokenClaims struct {
	jwt.RegisteredClaims
	Role      models.Role `json:"role,omitempty"`
	TokenType string      `json:"token_type,omitempty"`
}

// AuthService handles registration, login and token refresh
type AuthService struct {
	users  UserStore
	config *config.Config
	log    *logrus.Logger
}

// NewAuthService initializes a new auth service
func NewAuthService(users UserStore, cfg *config.Config, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, config: cfg, log: log}
}

// Register creates a new user with a hashed password
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserView, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", apperrors.ErrInvalidArgument)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, apperrors.ErrInvalidArgument)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithField("user", user.Username).Info("User registered")
	return &models.UserView{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// Login authenticates a user and returns an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signRefreshToken(user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user", user.Username).Info("User logged in")
	return &models.LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessTokenTTL.Seconds()),
	}, nil
}

// Refresh issues a new access token from a valid refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperrors.ErrUnauthorized)
	}
	if claims.TokenType != refreshTokenType {
		return nil, fmt.Errorf("token is not a refresh token: %w", apperrors.ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token subject: %w", apperrors.ErrUnauthorized)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessTokenTTL.Seconds()),
	}, nil
}

// ParseAccessToken validates an access token and returns the actor's
// identity and role.
func (s *AuthService) ParseAccessToken(token string) (uuid.UUID, models.Role, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}
	if claims.TokenType == refreshTokenType {
		return uuid.Nil, "", fmt.Errorf("refresh token cannot be used for access: %w", apperrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid token subject: %w", apperrors.ErrUnauthorized)
	}
	return userID, claims.Role, nil
}

func (s *AuthService) signAccessToken(user *models.User) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) signRefreshToken(user *models.User) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TokenType: refreshTokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseToken(token string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
