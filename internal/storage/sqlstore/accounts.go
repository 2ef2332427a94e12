package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yndnr/fp4-go/internal/core/domain"
)

func storageError(op string, err error) error {
	return domain.ErrStorage.WithCause(fmt.Errorf("%s: %w", op, err))
}

func getAccountByEmail(ctx context.Context, db DBTX, email string) (*domain.Account, error) {
	const q = `SELECT id, email, created_at FROM users WHERE email = $1`
	a := &domain.Account{}
	if err := db.QueryRowContext(ctx, q, email).Scan(&a.ID, &a.Email, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func getAccountByID(ctx context.Context, db DBTX, id int64) (*domain.Account, error) {
	const q = `SELECT id, email, created_at FROM users WHERE id = $1`
	a := &domain.Account{}
	if err := db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Email, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// FindOrCreateAccount returns the account for email, inserting it first
// when it does not exist.
func (s *Store) FindOrCreateAccount(ctx context.Context, email string) (*domain.Account, error) {
	var account *domain.Account
	err := WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		const insert = `INSERT INTO users (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`
		if _, err := tx.ExecContext(ctx, insert, email); err != nil {
			return err
		}
		a, err := getAccountByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, storageError("find or create account", err)
	}
	return account, nil
}

// GetAccount returns the account with id, or ErrNotFound.
func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	a, err := getAccountByID(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageError("get account", err)
	}
	return a, nil
}

// SaveDigest stores a token digest for an account.
func (s *Store) SaveDigest(ctx context.Context, digest string, accountID int64) error {
	const q = `INSERT INTO magic_links (token_hash, user_id) VALUES ($1, $2)`
	if _, err := s.db.ExecContext(ctx, q, digest, accountID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDigestConflict.WithCause(err)
		}
		return storageError("save digest", err)
	}
	return nil
}

// ConsumeDigest deletes a digest and returns the account it was issued to.
// A digest that is not stored yields domain.ErrNotFound.
func (s *Store) ConsumeDigest(ctx context.Context, digest string) (*domain.Account, error) {
	var account *domain.Account
	err := WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		const del = `DELETE FROM magic_links WHERE token_hash = $1 RETURNING user_id`
		var userID int64
		if err := tx.QueryRowContext(ctx, del, digest).Scan(&userID); err != nil {
			return err
		}
		a, err := getAccountByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		account = a
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageError("consume digest", err)
	}
	return account, nil
}

// DeleteDigest removes a digest. Removing an absent digest is not an error.
func (s *Store) DeleteDigest(ctx context.Context, digest string) error {
	const q = `DELETE FROM magic_links WHERE token_hash = $1`
	if _, err := s.db.ExecContext(ctx, q, digest); err != nil {
		return storageError("delete digest", err)
	}
	return nil
}
