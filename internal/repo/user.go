package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tutorial_catalog/internal/models"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

func (r *GormRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acc, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).First(&acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acc, nil
}

func (r *GormRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return count > 0, nil
}

// Insert creates acc and fills its ID. A taken username yields ErrDuplicateUsername.
func (r *GormRepo) Insert(ctx context.Context, acc *models.Account) error {
	if acc.Roles == "" {
		acc.Roles = roles.Encode([]string{roles.User})
	}
	if err := r.DB.WithContext(ctx).Create(acc).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (r *GormRepo) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

// NormalizeRoles rewrites every stored role set into canonical JSON and
// returns how many rows changed.
func (r *GormRepo) NormalizeRoles(ctx context.Context) (int, error) {
	var accounts []models.Account
	if err := r.DB.WithContext(ctx).Select("id", "roles").Order("id ASC").Find(&accounts).Error; err != nil {
		return 0, fmt.Errorf("load roles: %w", err)
	}

	changed := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range accounts {
			canonical := roles.Encode(roles.Resolve(a.Roles))
			if canonical == a.Roles {
				continue
			}
			if err := tx.Model(&models.Account{}).Where("id = ?", a.ID).Update("roles", canonical).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("normalize roles: %w", err)
	}
	return changed, nil
}
