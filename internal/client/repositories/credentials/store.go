package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shopkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/cryptox"
	"github.com/dmitrijs2005/shopkeeper/internal/dbx"
)

const (
	tokenKey = "token"
	saltKey  = "salt"
	saltSize = 16
)

// ErrUnreadable is returned by Load when a stored credential exists but
// cannot be decrypted, e.g. because the secret file was replaced.
var ErrUnreadable = errors.New("stored credential is unreadable")

// Store keeps one sealed token.
type Store struct {
	db     *sql.DB
	secret []byte
}

// NewStore returns a Store over db, sealing with keys derived from secret.
func NewStore(db *sql.DB, secret []byte) *Store {
	return &Store{db: db, secret: secret}
}

// Load returns the stored token, or "" if there is none.
func (s *Store) Load(ctx context.Context) (string, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	sealed, err := repo.Get(ctx, tokenKey)
	if errors.Is(err, metadata.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	salt, err := repo.Get(ctx, saltKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	key := cryptox.DeriveKey(s.secret, salt)
	defer common.WipeByteArray(key)

	plain, err := cryptox.Open(sealed, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return string(plain), nil
}

// Save replaces the stored token. The salt is created on first use and
// written in the same transaction as the token.
func (s *Store) Save(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		salt, err := repo.Get(ctx, saltKey)
		if errors.Is(err, metadata.ErrNotFound) {
			salt = common.GenerateRandByteArray(saltSize)
			if err := repo.Set(ctx, saltKey, salt); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		key := cryptox.DeriveKey(s.secret, salt)
		defer common.WipeByteArray(key)

		sealed, err := cryptox.Seal([]byte(token), key)
		if err != nil {
			return fmt.Errorf("seal credential: %w", err)
		}
		return repo.Set(ctx, tokenKey, sealed)
	})
}

// Clear removes the stored token. The salt is kept.
func (s *Store) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, tokenKey)
}
