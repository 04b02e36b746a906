package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/chainproof/chainaudit/models"
)

// UpsertUser creates the user for a wallet address if absent, otherwise
// touches its updated_at timestamp. It always succeeds for a non-empty
// address.
func (s *Store) UpsertUser(ctx context.Context, walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("%w: missing wallet address", ErrValidation)
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = upsertUser(tx, walletAddress, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserWithAudits returns the user and all of their audits in full detail,
// most recent first, or ErrNotFound.
func (s *Store) GetUserWithAudits(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Audits", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("audits.created_at DESC")
		}).
		Preload("Audits.User").
		Preload("Audits.Vulnerabilities").
		Preload("Audits.AiInsights").
		Preload("Audits.Metrics").
		Where("wallet_address = ?", walletAddress).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
