package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"notifyhub/internal/model"
	"notifyhub/pkg/config"

	"gorm.io/gorm"
)

var (
	// ErrTenantNotFound is returned when the named tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrKeyNotFound is returned when no key matches the selector for the tenant.
	ErrKeyNotFound = errors.New("api key not found")
)

var keyPrefix = "key_"

// Initialize stores the API key issuance configuration
func Initialize(cfg *config.APIKeyConfig) {
	if cfg != nil && cfg.Prefix != "" {
		keyPrefix = cfg.Prefix
	}
}

// Prefix returns the configured plaintext key prefix.
func Prefix() string {
	return keyPrefix
}

// HashKey computes the hex-encoded SHA-256 digest of a raw key. Only this
// digest is ever persisted.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// generateRawKey returns a new plaintext key: the configured prefix followed
// by 32 random bytes, hex encoded.
func generateRawKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return keyPrefix + hex.EncodeToString(b), nil
}

// GenerateForTenant issues a new active API key for the tenant identified by
// email. The returned string is the plaintext key, visible to the caller
// exactly once; only its hash is stored.
func GenerateForTenant(db *gorm.DB, tenantEmail string) (*model.APIKey, string, error) {
	var tenant model.Tenant
	if err := db.Where("email = ?", tenantEmail).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTenantNotFound
		}
		return nil, "", err
	}

	rawKey, err := generateRawKey()
	if err != nil {
		return nil, "", err
	}

	key := model.APIKey{
		KeyHash:  HashKey(rawKey),
		TenantID: tenant.ID,
		IsActive: true,
	}
	if err := db.Create(&key).Error; err != nil {
		return nil, "", err
	}

	return &key, rawKey, nil
}

// ValidateKey resolves a raw key to its owning tenant. It returns nil for an
// unknown or inactive key without distinguishing the two, and never treats
// bad input as an error.
func ValidateKey(db *gorm.DB, rawKey string) (*model.Tenant, error) {
	var key model.APIKey
	err := db.Preload("Tenant").Where("key_hash = ?", HashKey(rawKey)).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !key.IsActive {
		return nil, nil
	}
	return &key.Tenant, nil
}

// KeyInfo is the listing projection of a key. The hash and plaintext are
// deliberately absent.
type KeyInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

// ListTenantKeys returns all keys of a tenant, newest first.
func ListTenantKeys(db *gorm.DB, tenantEmail string) ([]KeyInfo, error) {
	var tenant model.Tenant
	if err := db.Where("email = ?", tenantEmail).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	var keys []model.APIKey
	if err := db.Where("tenant_id = ?", tenant.ID).
		Order("created_at desc, id desc").
		Find(&keys).Error; err != nil {
		return nil, err
	}

	infos := make([]KeyInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, KeyInfo{ID: k.ID, CreatedAt: k.CreatedAt, IsActive: k.IsActive})
	}
	return infos, nil
}

// StatusUpdate summarizes a key-status change.
type StatusUpdate struct {
	Count int64
	KeyID string
}

// UpdateStatusByMode flips key activation state for the tenant identified by
// email according to the selector:
//
//   - SelectAll flips every key currently in the opposite state and reports
//     the count (keys already in the target state are untouched).
//   - SelectLatest / SelectOldest flip the newest/oldest key currently in
//     the opposite state; ErrKeyNotFound if no such key exists.
//   - SelectByID flips the named key regardless of its current state;
//     ErrKeyNotFound if it does not exist or belongs to another tenant.
func UpdateStatusByMode(db *gorm.DB, tenantEmail string, sel Selector, isActive bool) (*StatusUpdate, error) {
	var tenant model.Tenant
	if err := db.Where("email = ?", tenantEmail).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	switch sel.Kind {
	case SelectAll:
		result := db.Model(&model.APIKey{}).
			Where("tenant_id = ? AND is_active = ?", tenant.ID, !isActive).
			Update("is_active", isActive)
		if result.Error != nil {
			return nil, result.Error
		}
		return &StatusUpdate{Count: result.RowsAffected}, nil

	case SelectLatest, SelectOldest:
		order := "created_at desc, id desc"
		if sel.Kind == SelectOldest {
			order = "created_at asc, id asc"
		}
		var key model.APIKey
		err := db.Where("tenant_id = ? AND is_active = ?", tenant.ID, !isActive).
			Order(order).
			First(&key).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrKeyNotFound
			}
			return nil, err
		}
		if err := db.Model(&key).Update("is_active", isActive).Error; err != nil {
			return nil, err
		}
		return &StatusUpdate{Count: 1, KeyID: key.ID}, nil

	default:
		var key model.APIKey
		err := db.Where("id = ?", sel.KeyID).First(&key).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrKeyNotFound
			}
			return nil, err
		}
		if key.TenantID != tenant.ID {
			return nil, ErrKeyNotFound
		}
		// Flip regardless of current state; a no-op update is tolerated.
		if err := db.Model(&key).Update("is_active", isActive).Error; err != nil {
			return nil, err
		}
		return &StatusUpdate{Count: 1, KeyID: key.ID}, nil
	}
}

// DeactivateAllForTenant deactivates every active key of the given tenant ID
// and returns the count. Used by the suspension cascade, which already holds
// the tenant row and runs inside a transaction.
func DeactivateAllForTenant(db *gorm.DB, tenantID string) (int64, error) {
	result := db.Model(&model.APIKey{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
