package apikey

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"
)

// ErrNotFound is returned when no key has the requested prefix.
var ErrNotFound = errors.New("api key not found")

// Repository provides persistence for API keys.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a new API key repository.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the api_keys table.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db(ctx, false).AutoMigrate(&APIKey{})
}

// Create persists a new key.
func (r *Repository) Create(ctx context.Context, k *APIKey) error {
	return r.db(ctx, false).Create(k).Error
}

// GetByPrefix returns the key with the given prefix.
func (r *Repository) GetByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	var k APIKey
	err := r.db(ctx, true).Where("prefix = ?", prefix).First(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// ListAll returns every key, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	err := r.db(ctx, true).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// Revoke marks the unrevoked key with prefix as revoked and reports
// whether a row changed.
func (r *Repository) Revoke(ctx context.Context, prefix string) (bool, error) {
	res := r.db(ctx, false).
		Model(&APIKey{}).
		Where("prefix = ? AND revoked_at IS NULL", prefix).
		Update("revoked_at", time.Now().UTC())
	return res.RowsAffected > 0, res.Error
}

// Touch records that the key was just used.
func (r *Repository) Touch(ctx context.Context, prefix string) error {
	return r.db(ctx, false).
		Model(&APIKey{}).
		Where("prefix = ?", prefix).
		Update("last_used_at", time.Now().UTC()).Error
}
