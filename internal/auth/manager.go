// Package auth owns credentials: account creation, password hashing, token
// issue and token lookup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/eleven-am/recipe-api/internal/store"
)

// UserManager creates users and checks their credentials
type UserManager struct {
	store  *store.Store
	hasher *Hasher
}

func NewUserManager(s *store.Store, hasher *Hasher) *UserManager {
	if hasher == nil {
		hasher = NewHasher()
	}
	return &UserManager{store: s, hasher: hasher}
}

// Hasher returns the password hasher used by the manager
func (m *UserManager) Hasher() *Hasher {
	return m.hasher
}

// UserParams are the fields accepted when creating a user
type UserParams struct {
	Email       string
	Password    string
	Name        string
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
}

// CreateUser creates an active, non-staff user
func (m *UserManager) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return m.Create(ctx, UserParams{Email: email, Password: password, Name: name, IsActive: true})
}

// CreateSuperuser creates an active user with staff and superuser flags set
func (m *UserManager) CreateSuperuser(ctx context.Context, email, password, name string) (*models.User, error) {
	return m.Create(ctx, UserParams{
		Email:       email,
		Password:    password,
		Name:        name,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

// Create normalises the email, hashes the password and inserts the user.
// An empty password stores an unusable marker.
func (m *UserManager) Create(ctx context.Context, p UserParams) (*models.User, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, ErrEmailRequired
	}

	user := &models.User{
		Email:       NormalizeEmail(p.Email),
		Name:        p.Name,
		IsActive:    p.IsActive,
		IsStaff:     p.IsStaff,
		IsSuperuser: p.IsSuperuser,
	}
	if err := m.SetPassword(user, p.Password); err != nil {
		return nil, err
	}

	if err := m.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, orm.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Auth().WithFields(map[string]interface{}{
		"user_id": user.ID,
		"staff":   user.IsStaff,
	}).Info("created user %s", user.Email)

	return user, nil
}

// EmailTaken reports whether a user already has the normalised form of email
func (m *UserManager) EmailTaken(ctx context.Context, email string) (bool, error) {
	return m.store.Users.Query(ctx).Where(models.Users.Email.Eq(NormalizeEmail(email))).Exists()
}

// SetPassword hashes raw into the user without saving
func (m *UserManager) SetPassword(user *models.User, raw string) error {
	if raw == "" {
		user.Password = UnusablePassword()
		return nil
	}
	hash, err := m.hasher.Hash(raw)
	if err != nil {
		return err
	}
	user.Password = hash
	return nil
}

// Save writes every column of an existing user, normalising the email again
func (m *UserManager) Save(ctx context.Context, user *models.User) error {
	if strings.TrimSpace(user.Email) == "" {
		return ErrEmailRequired
	}
	user.Email = NormalizeEmail(user.Email)

	if err := m.store.Users.Update(ctx, user); err != nil {
		if errors.Is(err, orm.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
		}
		return err
	}
	return nil
}

// CheckCredentials returns the active user matching email and password.
// Every failure reports ErrInvalidCredentials.
func (m *UserManager) CheckCredentials(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := m.store.Users.Query(ctx).
		Where(models.Users.Email.Eq(NormalizeEmail(email))).
		First()
	if err != nil {
		if orm.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive || !m.hasher.Check(password, user.Password) {
		logger.Auth().WithField("user_id", user.ID).Debug("credential check failed")
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// TouchLastLogin records a successful interactive login
func (m *UserManager) TouchLastLogin(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	_, err := m.store.Users.Query(ctx).
		Where(models.Users.ID.Eq(user.ID)).
		Update(map[string]interface{}{"last_login": now})
	if err != nil {
		return err
	}
	user.LastLogin = &now
	return nil
}
