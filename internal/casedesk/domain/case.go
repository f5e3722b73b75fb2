package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var ErrUnknownStatus = errors.New("unknown case status")

type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// ParseStatus accepts either status in any letter case.
func ParseStatus(s string) (Status, error) {
	switch {
	case strings.EqualFold(s, string(StatusOpen)):
		return StatusOpen, nil
	case strings.EqualFold(s, string(StatusClosed)):
		return StatusClosed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Case is a support case. ClosedAt is non-nil exactly when Status is Closed.
type Case struct {
	ID          string
	Title       string
	Description string
	Status      Status
	CreatedByID string
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

// NewCase starts every case Open, whatever the caller asked for.
func NewCase(id, title, description, createdByID string, now time.Time) Case {
	return Case{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      StatusOpen,
		CreatedByID: createdByID,
		CreatedAt:   now,
	}
}

// Transition moves the case to status to. Requesting the current status is a
// no-op and reports changed=false.
func (c *Case) Transition(to Status, now time.Time) (from Status, changed bool, err error) {
	from = c.Status

	switch to {
	case StatusOpen, StatusClosed:
	default:
		return from, false, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	if to == from {
		return from, false, nil
	}

	c.Status = to
	if to == StatusClosed {
		closed := now
		c.ClosedAt = &closed
	} else {
		c.ClosedAt = nil
	}
	return from, true, nil
}

// CaseFilter selects cases for a list query. Empty fields do not constrain.
// OwnerID is the visibility scope and is set only by the policy engine.
type CaseFilter struct {
	OwnerID string
	Status  Status
	Search  string
}

// ContainsFold reports whether substr occurs in s under Unicode case
// folding, so "økonomi" finds "Økonomisystem nede". Case search uses this
// rule everywhere, including inside SQL.
func ContainsFold(s, substr string) bool {
	return strings.Contains(cases.Fold().String(s), cases.Fold().String(substr))
}
