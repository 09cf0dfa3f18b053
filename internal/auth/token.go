package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/eleven-am/recipe-api/internal/store"
)

// KeyLength is the length of a token key in hex characters
const KeyLength = 40

// TokenService issues and resolves opaque API tokens
type TokenService struct {
	store *store.Store
	users *UserManager
}

func NewTokenService(s *store.Store, users *UserManager) *TokenService {
	return &TokenService{store: s, users: users}
}

// GenerateKey returns a new random 40 character key
func GenerateKey() string {
	return randomHex(KeyLength / 2)
}

// Obtain checks credentials and returns the user's token, creating it on
// first use. Failed checks never create a token.
func (s *TokenService) Obtain(ctx context.Context, email, password string) (*models.Token, error) {
	user, err := s.users.CheckCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, user.ID)
}

// GetOrCreate returns the existing token for the user or stores a new one
func (s *TokenService) GetOrCreate(ctx context.Context, userID int64) (*models.Token, error) {
	var token *models.Token

	err := s.store.WithTransaction(ctx, func(tx *store.Store) error {
		existing, err := tx.Tokens.Query(ctx).Where(models.Tokens.UserID.Eq(userID)).First()
		if err == nil {
			token = existing
			return nil
		}
		if !orm.IsNotFound(err) {
			return err
		}

		created := &models.Token{Key: GenerateKey(), UserID: userID, Created: time.Now().UTC()}
		if err := tx.Tokens.Create(ctx, created); err != nil {
			return err
		}
		token = created
		logger.Auth().WithField("user_id", userID).Info("issued token")
		return nil
	})

	// a concurrent request created the token first
	if errors.Is(err, orm.ErrDuplicateKey) {
		return s.store.Tokens.Query(ctx).Where(models.Tokens.UserID.Eq(userID)).First()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a token key to its active user
func (s *TokenService) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidToken
	}

	token, err := s.store.Tokens.Query(ctx).Where(models.Tokens.Key.Eq(key)).First()
	if err != nil {
		if orm.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.store.Users.FindByID(ctx, token.UserID)
	if err != nil {
		if orm.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}
