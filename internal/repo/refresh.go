package repo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tutorial_catalog/internal/models"
)

const refreshTokenBytes = 64

func newOpaqueToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (r *GormRepo) createRefresh(db *gorm.DB, username string, ttl time.Duration) (string, time.Time, error) {
	token, err := newOpaqueToken()
	if err != nil {
		return "", time.Time{}, err
	}
	exp := r.now().Add(ttl)
	row := models.RefreshToken{
		TokenHash: Sha256Hex(token),
		Username:  username,
		ExpiresAt: exp,
	}
	if err := db.Create(&row).Error; err != nil {
		return "", time.Time{}, fmt.Errorf("store refresh token: %w", err)
	}
	return token, exp, nil
}

// IssueRefresh stores a new refresh token for username and returns the opaque value.
func (r *GormRepo) IssueRefresh(ctx context.Context, username string, ttl time.Duration) (string, time.Time, error) {
	return r.createRefresh(r.DB.WithContext(ctx), username, ttl)
}

func (r *GormRepo) findRefresh(db *gorm.DB, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, ErrRefreshUnknown
	}
	var row models.RefreshToken
	if err := db.Where("token_hash = ?", Sha256Hex(token)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshUnknown
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &row, nil
}

func (r *GormRepo) checkRefresh(row *models.RefreshToken) error {
	if row.Revoked {
		return ErrRefreshRevoked
	}
	if !r.now().Before(row.ExpiresAt) {
		return ErrRefreshExpired
	}
	return nil
}

// ValidateRefresh returns the username bound to a live refresh token.
func (r *GormRepo) ValidateRefresh(ctx context.Context, token string) (string, error) {
	row, err := r.findRefresh(r.DB.WithContext(ctx), token)
	if err != nil {
		return "", err
	}
	if err := r.checkRefresh(row); err != nil {
		return "", err
	}
	return row.Username, nil
}

// RotateRefresh revokes oldToken and issues its replacement in one transaction.
// A token can be rotated once; the loser of a concurrent rotation sees ErrRefreshRevoked.
func (r *GormRepo) RotateRefresh(ctx context.Context, oldToken string, ttl time.Duration) (string, string, time.Time, error) {
	var (
		username string
		newToken string
		exp      time.Time
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.findRefresh(tx, oldToken)
		if err != nil {
			return err
		}
		if err := r.checkRefresh(row); err != nil {
			return err
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", row.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return fmt.Errorf("revoke refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRefreshRevoked
		}

		newToken, exp, err = r.createRefresh(tx, row.Username, ttl)
		if err != nil {
			return err
		}
		username = row.Username
		return nil
	})
	if err != nil {
		return "", "", time.Time{}, err
	}
	return username, newToken, exp, nil
}

// RevokeRefresh marks a token revoked. Unknown tokens are not an error.
func (r *GormRepo) RevokeRefresh(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", Sha256Hex(token)).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *GormRepo) DeleteExpiredRefresh(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ?", before.UTC()).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
