// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus is the lifecycle state of a contact in an SMS sequence.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentFailed    EnrollmentStatus = "failed"
)

// SequenceStep is one message of an SMS sequence. DelayMinutes is measured
// from the previous step (or from enrollment for the first step).
type SequenceStep struct {
	SequenceID   uuid.UUID `json:"sequence_id"`
	Position     int       `json:"position"`
	DelayMinutes int       `json:"delay_minutes"`
	Body         string    `json:"body"`
}

// Enrollment tracks a phone number's progress through a sequence.
type Enrollment struct {
	ID          uuid.UUID        `json:"id"`
	SequenceID  uuid.UUID        `json:"sequence_id"`
	Phone       string           `json:"phone"`
	CurrentStep int              `json:"current_step"`
	NextSendAt  time.Time        `json:"next_send_at"`
	Status      EnrollmentStatus `json:"status"`
}
