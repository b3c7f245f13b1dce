package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService issues signed access tokens and keeps their ids in
// auth_tokens so logout can revoke them before they expire.
type TokenService struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

func NewTokenService(db *gorm.DB, secret string, ttl time.Duration) *TokenService {
	return &TokenService{db: db, secret: secret, ttl: ttl}
}

func (s *TokenService) Issue(ctx context.Context, userID uint) (*utils.AccessToken, error) {
	tok, err := utils.NewAccessToken(s.secret, userID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&models.AuthToken{Key: tok.ID, UserID: userID}).Error; err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &tok, nil
}

// Resolve verifies raw and returns its user and token id.
func (s *TokenService) Resolve(ctx context.Context, raw string) (*models.User, string, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	stored, err := s.lookup(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, "", err
	}
	return &stored.User, stored.Key, nil
}

// ResolveSession checks a token id kept in a cookie session. The session
// dies with its token: logout, a password change or the token ttl.
func (s *TokenService) ResolveSession(ctx context.Context, userID uint, tokenID string) (*models.User, error) {
	if userID == 0 || tokenID == "" {
		return nil, ErrInvalidToken
	}
	stored, err := s.lookup(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}
	if time.Since(stored.CreatedAt) > s.ttl {
		return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	return &stored.User, nil
}

func (s *TokenService) lookup(ctx context.Context, userID uint, tokenID string) (*models.AuthToken, error) {
	var stored models.AuthToken
	err := s.db.WithContext(ctx).Preload("User").
		Where(&models.AuthToken{Key: tokenID, UserID: userID}).
		First(&stored).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &stored, nil
}

func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where(&models.AuthToken{Key: tokenID}).Delete(&models.AuthToken{}).Error
}

// RevokeAll drops every token of a user, used after a password change.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error
}
