package identity

import (
	"context"
	"errors"

	"github.com/example/trivia-rooms/domain/account"
	"gorm.io/gorm"
)

var (
	// ErrAccountNotFound is returned when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned when the token or username is taken.
	ErrAccountExists = errors.New("an account already exists for this user")
)

// AccountRepository handles account persistence using GORM.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	result := r.db.WithContext(ctx).Create(a)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrAccountExists
		}
		return result.Error
	}
	return nil
}

// Exists reports whether token or username is already registered.
func (r *AccountRepository) Exists(ctx context.Context, token, username string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&account.Account{}).
		Where("token = ? OR username = ?", token, username).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// FindByToken finds an account by its provider token.
func (r *AccountRepository) FindByToken(ctx context.Context, token string) (*account.Account, error) {
	return r.findOne(ctx, "token = ?", token)
}

// FindByUsername finds an account by username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*account.Account, error) {
	var a account.Account
	result := r.db.WithContext(ctx).First(&a, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, result.Error
	}
	return &a, nil
}

// SetSession stores sessionID on the account, or clears it when empty.
func (r *AccountRepository) SetSession(ctx context.Context, username, sessionID string) error {
	result := r.db.WithContext(ctx).Model(&account.Account{}).
		Where("username = ?", username).
		Update("session_id", sessionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AdjustRank adds delta to the account's rank, never going below zero,
// and returns the new rank.
func (r *AccountRepository) AdjustRank(ctx context.Context, username string, delta int) (int, error) {
	var rank int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a account.Account
		if err := tx.First(&a, "username = ?", username).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		rank = max(a.Rank+delta, 0)
		return tx.Model(&a).Update("rank", rank).Error
	})
	if err != nil {
		return 0, err
	}
	return rank, nil
}
