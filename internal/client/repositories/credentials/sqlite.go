package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chatpulse/chatpulse-cli/internal/dbx"
)

// credentialKey is the single well-known row key; the table never holds more
// than one credential.
const credentialKey = "bearer"

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (*StoredCredential, error) {
	var (
		token     string
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, expires_at FROM credentials WHERE key = ?`, credentialKey,
	).Scan(&token, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	cred := &StoredCredential{Token: token}
	if expiresAt > 0 {
		cred.ExpiresAt = time.Unix(expiresAt, 0)
	}
	return cred, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, cred StoredCredential) error {
	var expiresAt int64
	if !cred.ExpiresAt.IsZero() {
		expiresAt = cred.ExpiresAt.Unix()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (key, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
	`, credentialKey, cred.Token, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials`)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
