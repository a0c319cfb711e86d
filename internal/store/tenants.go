package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"agent-config-service/internal/model"
)

// maxSlugAttempts bounds the collision-suffix search before the
// creation gives up with a conflict.
const maxSlugAttempts = 50

// CreateTenant creates a tenant with a slug derived from the name.
// Collisions are resolved by appending -1, -2, ... to the base slug.
func (s *Store) CreateTenant(name string) (*model.Tenant, error) {
	var tenant *model.Tenant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		tenant, err = createTenantTx(tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// createTenantTx runs tenant creation inside an existing transaction
// so signup can create the tenant and its owner atomically.
func createTenantTx(tx *gorm.DB, name string) (*model.Tenant, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrValidation)
	}

	base := slugify(name)
	if base == "" {
		base = "tenant-" + randomToken(8)
	}

	for i := 0; i < maxSlugAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		var count int64
		if err := tx.Model(&model.Tenant{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return nil, storageError(err)
		}
		if count > 0 {
			continue
		}

		tenant := model.Tenant{
			Name:   name,
			Slug:   candidate,
			Active: true,
		}
		err := tx.Create(&tenant).Error
		if err == nil {
			return &tenant, nil
		}
		// A concurrent signup may have claimed the slug between the
		// count and the insert; move on to the next suffix.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, storageError(err)
	}

	return nil, fmt.Errorf("%w: could not allocate a unique slug for %q", ErrConflict, name)
}

// SetTenantActive suspends or reinstates a tenant. Suspension does not
// touch the tenant's agents; the execution resolver simply stops
// serving them until the flag comes back.
func (s *Store) SetTenantActive(tenantID uint, active bool) error {
	result := s.db.Model(&model.Tenant{}).
		Where("id = ?", tenantID).
		Update("active", active)
	if result.Error != nil {
		return storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTenantBySlug looks a tenant up by its slug.
func (s *Store) GetTenantBySlug(slug string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.Where("slug = ?", slug).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &tenant, nil
}

// slugify lowercases the name, folds accented letters to their ASCII
// base, and collapses every other run of characters into a single
// hyphen. Returns "" when nothing usable remains.
func slugify(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark left over from decomposition.
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// randomToken returns n hex characters from crypto/rand.
func randomToken(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		panic("rand.Read: " + err.Error())
	}
	return hex.EncodeToString(buf)[:n]
}
