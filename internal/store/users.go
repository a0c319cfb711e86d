package store

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agent-config-service/internal/model"
)

// DefaultBcryptCost is the password hashing cost used unless the
// store is configured otherwise.
const DefaultBcryptCost = 12

// SetBcryptCost overrides the password hashing cost. Intended for
// configuration at startup (and cheaper hashing in tests).
func (s *Store) SetBcryptCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.bcryptCost = cost
	}
}

// Signup creates a new tenant and its owner user in one transaction.
// Emails are unique across the whole system, not per tenant.
func (s *Store) Signup(tenantName, email, password string) (*model.Tenant, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	cost := s.bcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	var tenant *model.Tenant
	var user *model.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return storageError(err)
		}
		if count > 0 {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}

		tenant, err = createTenantTx(tx, tenantName)
		if err != nil {
			return err
		}

		user = &model.User{
			Email:          email,
			HashedPassword: string(hashed),
			TenantID:       tenant.ID,
			Role:           model.RoleOwner,
			Active:         true,
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: email already registered", ErrConflict)
			}
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return tenant, user, nil
}

// Authenticate verifies the email/password pair. Unknown emails and
// wrong passwords both come back as ErrUnauthorized; a deactivated
// user comes back as ErrForbidden. The bcrypt comparison is
// constant-time.
func (s *Store) Authenticate(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user model.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storageError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	if !user.Active {
		return nil, ErrForbidden
	}

	return &user, nil
}

// DeactivateUser disables a user account. Deactivation is the only
// mutation users support; the tenant binding and role are immutable.
func (s *Store) DeactivateUser(userID uint) error {
	result := s.db.Model(&model.User{}).Where("id = ? AND active = ?", userID, true).Update("active", false)
	if result.Error != nil {
		return storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserByEmail looks a user up by email.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	err := s.db.Where("email = ?", strings.TrimSpace(strings.ToLower(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &user, nil
}
