package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/paperfour/tandem/internal/store"
)

func (s *Store) CreateRefreshToken(ctx context.Context, studentID, tokenHash string, expiresAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, student_id, token_hash, expires_at) VALUES ($1,$2,$3,$4)`,
		id, studentID, tokenHash, expiresAt,
	)
	return id, err
}

func (s *Store) RefreshTokenByHash(ctx context.Context, tokenHash string) (store.RefreshToken, error) {
	rt := store.RefreshToken{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, student_id, token_hash, expires_at, revoked, replaced_by
		 FROM refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&rt.ID, &rt.StudentID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.RefreshToken{}, &store.NotFoundError{Kind: "refresh_token", ID: tokenHash}
	}
	return rt, err
}

// rotate: revoke the old token, insert the new one, link them
func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, studentID, newHash string, newExpiry time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(t pgx.Tx) error {
		_, err := t.Exec(ctx,
			`UPDATE refresh_tokens SET revoked = true, replaced_by = $1 WHERE id = $2`,
			newID, oldID,
		)
		if err != nil {
			return err
		}
		_, err = t.Exec(ctx,
			`INSERT INTO refresh_tokens (id, student_id, token_hash, expires_at) VALUES ($1,$2,$3,$4)`,
			newID, studentID, newHash, newExpiry,
		)
		return err
	})
}

// revoke all tokens for a student (on logout or suspected theft)
func (s *Store) RevokeRefreshTokens(ctx context.Context, studentID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE student_id = $1 AND revoked = false`,
		studentID,
	)
	return err
}
