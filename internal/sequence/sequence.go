// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sequence advances SMS follow-up sequences. Each run claims the
// enrollments whose next message is due, queues that message in the outbox
// and schedules the following step. Delivery of queued messages belongs to
// the SMS gateway and is not done here.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"landingkit/internal/models"
)

const (
	// DefaultLimit is the batch size used when the caller gives none.
	DefaultLimit = 100
	// MaxLimit caps the batch size of one run.
	MaxLimit = 1000
)

// ErrInvalidPhone marks an enrollment that cannot receive messages.
var ErrInvalidPhone = errors.New("enrollment has no phone number")

// Tx is the unit of work a run executes in. Enrollments returned by
// DueEnrollments stay locked until the transaction ends.
type Tx interface {
	DueEnrollments(ctx context.Context, now time.Time, limit int) ([]models.Enrollment, error)
	// StepFrom returns the first step at or after position, or nil past
	// the last step.
	StepFrom(ctx context.Context, sequenceID uuid.UUID, position int) (*models.SequenceStep, error)
	Enqueue(ctx context.Context, e models.Enrollment, body string) error
	Advance(ctx context.Context, enrollmentID uuid.UUID, step int, next time.Time) error
	SetStatus(ctx context.Context, enrollmentID uuid.UUID, status models.EnrollmentStatus) error
}

// Repository opens transactions for the processor.
type Repository interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Result summarizes one processing run.
type Result struct {
	Processed int `json:"processed"`
	Queued    int `json:"queued"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Processor runs sequence batches against a repository.
type Processor struct {
	repo Repository
	now  func() time.Time
}

// NewProcessor creates a Processor backed by repo.
func NewProcessor(repo Repository) *Processor {
	return &Processor{repo: repo, now: time.Now}
}

// ClampLimit applies the default and the ceiling to a caller-supplied limit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Process handles up to limit due enrollments in one transaction.
func (p *Processor) Process(ctx context.Context, limit int) (Result, error) {
	limit = ClampLimit(limit)
	now := p.now().UTC()

	var res Result
	err := p.repo.WithinTx(ctx, func(tx Tx) error {
		res = Result{}
		due, err := tx.DueEnrollments(ctx, now, limit)
		if err != nil {
			return fmt.Errorf("load due enrollments: %w", err)
		}
		for _, e := range due {
			res.Processed++
			if err := p.advance(ctx, tx, e, now, &res); err != nil {
				return fmt.Errorf("enrollment %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("process sms sequences: %w", err)
	}

	slog.Info("sms sequences processed",
		"processed", res.Processed,
		"queued", res.Queued,
		"completed", res.Completed,
		"failed", res.Failed,
	)
	return res, nil
}

func (p *Processor) advance(ctx context.Context, tx Tx, e models.Enrollment, now time.Time, res *Result) error {
	step, err := tx.StepFrom(ctx, e.SequenceID, e.CurrentStep)
	if err != nil {
		return err
	}
	if step == nil {
		res.Completed++
		return tx.SetStatus(ctx, e.ID, models.EnrollmentCompleted)
	}

	if strings.TrimSpace(e.Phone) == "" {
		slog.Warn("sms enrollment failed", "enrollment_id", e.ID, "error", ErrInvalidPhone)
		res.Failed++
		return tx.SetStatus(ctx, e.ID, models.EnrollmentFailed)
	}

	if err := tx.Enqueue(ctx, e, step.Body); err != nil {
		return err
	}
	res.Queued++

	next, err := tx.StepFrom(ctx, e.SequenceID, step.Position+1)
	if err != nil {
		return err
	}
	if next == nil {
		res.Completed++
		return tx.SetStatus(ctx, e.ID, models.EnrollmentCompleted)
	}
	return tx.Advance(ctx, e.ID, next.Position, now.Add(time.Duration(next.DelayMinutes)*time.Minute))
}
