// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"landingkit/internal/models"
	"landingkit/internal/sequence"
)

// ErrSequenceNotFound is returned when enrolling into a missing sequence.
var ErrSequenceNotFound = errors.New("sequence not found")

// foreignKeyViolation is the PostgreSQL SQLSTATE for a broken reference.
const foreignKeyViolation = "23503"

// SequenceStore backs the SMS sequence processor.
type SequenceStore struct {
	db *sql.DB
}

// NewSequenceStore creates a new SequenceStore.
func NewSequenceStore(db *sql.DB) *SequenceStore {
	return &SequenceStore{db: db}
}

// WithinTx runs fn in a transaction, committing when it returns nil.
func (s *SequenceStore) WithinTx(ctx context.Context, fn func(sequence.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sequence tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sequenceTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sequence tx: %w", err)
	}
	return nil
}

// Enroll adds a phone number to a sequence, due immediately.
func (s *SequenceStore) Enroll(ctx context.Context, sequenceID uuid.UUID, phone string) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sms_enrollments (sequence_id, phone)
		VALUES ($1, $2)
		RETURNING id, sequence_id, phone, current_step, next_send_at, status
	`, sequenceID, phone).Scan(&e.ID, &e.SequenceID, &e.Phone, &e.CurrentStep, &e.NextSendAt, &e.Status)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return nil, ErrSequenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("enroll phone: %w", err)
	}
	return &e, nil
}

type sequenceTx struct {
	tx *sql.Tx
}

// DueEnrollments locks due enrollments of active sequences. Rows locked by
// a concurrent run are skipped.
func (t *sequenceTx) DueEnrollments(ctx context.Context, now time.Time, limit int) ([]models.Enrollment, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT e.id, e.sequence_id, e.phone, e.current_step, e.next_send_at, e.status
		FROM sms_enrollments e
		JOIN sms_sequences s ON s.id = e.sequence_id AND s.active
		WHERE e.status = 'active' AND e.next_send_at <= $1
		ORDER BY e.next_send_at
		LIMIT $2
		FOR UPDATE OF e SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select due enrollments: %w", err)
	}
	defer rows.Close()

	var out []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.SequenceID, &e.Phone, &e.CurrentStep, &e.NextSendAt, &e.Status); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// StepFrom returns the lowest-positioned step at or after position, so
// gaps in the numbering are skipped.
func (t *sequenceTx) StepFrom(ctx context.Context, sequenceID uuid.UUID, position int) (*models.SequenceStep, error) {
	var st models.SequenceStep
	err := t.tx.QueryRowContext(ctx, `
		SELECT sequence_id, position, delay_minutes, body
		FROM sms_sequence_steps WHERE sequence_id = $1 AND position >= $2
		ORDER BY position LIMIT 1
	`, sequenceID, position).Scan(&st.SequenceID, &st.Position, &st.DelayMinutes, &st.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find sequence step: %w", err)
	}
	return &st, nil
}

func (t *sequenceTx) Enqueue(ctx context.Context, e models.Enrollment, body string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sms_outbox (enrollment_id, phone, body) VALUES ($1, $2, $3)
	`, e.ID, e.Phone, body)
	if err != nil {
		return fmt.Errorf("enqueue sms: %w", err)
	}
	return nil
}

func (t *sequenceTx) Advance(ctx context.Context, id uuid.UUID, step int, next time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE sms_enrollments SET current_step = $1, next_send_at = $2, updated_at = NOW()
		WHERE id = $3
	`, step, next, id)
	if err != nil {
		return fmt.Errorf("advance enrollment: %w", err)
	}
	return nil
}

func (t *sequenceTx) SetStatus(ctx context.Context, id uuid.UUID, status models.EnrollmentStatus) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE sms_enrollments SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("set enrollment status: %w", err)
	}
	return nil
}

// Compile-time check that SequenceStore satisfies sequence.Repository.
var _ sequence.Repository = (*SequenceStore)(nil)
