package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otaku_hub/internal/common"
	"otaku_hub/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimUserID = "userId"
	ClaimEmail  = "email"

	MsgInvalidToken = "Invalid or expired token."
)

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

func (m *TokenManager) GenerateToken(userID, email string) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID: userID,
		ClaimEmail:  email,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, m.ttl)

	_, tokenString, err := m.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken verifies signature and expiry. Every failure is reported as the
// same authentication error so callers cannot tell the reasons apart.
func (m *TokenManager) ParseToken(ctx context.Context, tokenString string) (model.Identity, error) {
	token, err := jwtauth.VerifyToken(m.auth, tokenString)
	if err != nil || token == nil {
		return model.Identity{}, common.NewAuthenticationError(MsgInvalidToken)
	}

	raw, err := token.AsMap(ctx)
	if err != nil {
		return model.Identity{}, common.NewAuthenticationError(MsgInvalidToken)
	}
	claims := jwt.MapClaims(raw)

	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return model.Identity{}, common.NewAuthenticationError(MsgInvalidToken)
	}
	email, err := GetEmailFromClaims(claims)
	if err != nil {
		return model.Identity{}, common.NewAuthenticationError(MsgInvalidToken)
	}
	return model.Identity{UserID: userID, Email: email}, nil
}

// Helper functions to extract claims
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims[ClaimUserID].(string)
	if !ok || id == "" {
		return "", errors.New("userId claim is missing or not a string")
	}
	return id, nil
}

func GetEmailFromClaims(claims jwt.MapClaims) (string, error) {
	email, ok := claims[ClaimEmail].(string)
	if !ok {
		return "", errors.New("email claim is missing or not a string")
	}
	return email, nil
}
