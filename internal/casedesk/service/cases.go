package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/idx"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

type CaseService struct {
	Store   store.Store
	Audit   *AuditRecorder
	Metrics *metricsx.Metrics
	Now     func() time.Time
}

// ListQuery holds the optional refinements of GET /cases, as sent.
type ListQuery struct {
	Status string
	Search string
}

// CreateCaseInput is the body of POST /cases. Status is accepted for wire
// compatibility and ignored: new cases always start Open.
type CreateCaseInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Status      string `json:"status"`
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// List returns the cases p may see, narrowed by q. Users only ever see their
// own cases. Unscoped reads are audited with the number of cases returned.
func (s *CaseService) List(ctx context.Context, p jwtx.Principal, q ListQuery) ([]domain.Case, error) {
	d, err := authorize(ctx, s.Metrics, p, policy.ListCases)
	if err != nil {
		return nil, err
	}

	refine := policy.Refinements{Search: strings.TrimSpace(q.Search)}
	if q.Status != "" {
		st, err := domain.ParseStatus(strings.TrimSpace(q.Status))
		if err != nil {
			return nil, invalidField("status", "must be Open or Closed")
		}
		refine.Status = st
	}
	filter := d.Filter(refine)

	if !d.Scope.Full() {
		return s.Store.Cases().ListCases(ctx, filter)
	}

	var cases []domain.Case
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		cases, err = tx.Cases().ListCases(ctx, filter)
		if err != nil {
			return err
		}

		return s.Audit.Record(ctx, tx.Audit(), domain.AuditEntry{
			ActorID:   p.SubjectID,
			ActorRole: string(d.Role),
			Action:    domain.ActionViewedCases,
			Detail:    strconv.Itoa(len(cases)),
		})
	})
	if err != nil {
		return nil, err
	}

	return cases, nil
}

// Create opens a new case owned by p, whatever the body claims.
func (s *CaseService) Create(ctx context.Context, p jwtx.Principal, in CreateCaseInput) (domain.Case, error) {
	if _, err := authorize(ctx, s.Metrics, p, policy.CreateCase); err != nil {
		return domain.Case{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return domain.Case{}, err
	}

	t := now(s.Now)
	c := domain.NewCase(idx.NewAt(t).String(), in.Title, in.Description, p.SubjectID, t)
	if err := s.Store.Cases().CreateCase(ctx, c); err != nil {
		return domain.Case{}, err
	}

	slogx.FromContext(ctx).Info("case created",
		slog.String("case_id", c.ID),
		slog.String("created_by_id", c.CreatedByID),
	)

	return c, nil
}

// UpdateStatus moves case id to the requested status. Only the role of p
// matters; owning the case grants nothing. The status write and its audit
// entry commit together or not at all. Requesting the current status
// changes nothing and records nothing.
func (s *CaseService) UpdateStatus(ctx context.Context, p jwtx.Principal, id string, in UpdateStatusInput) (domain.Case, error) {
	d, err := authorize(ctx, s.Metrics, p, policy.UpdateCaseStatus)
	if err != nil {
		return domain.Case{}, err
	}

	if err := validateStruct(in); err != nil {
		return domain.Case{}, err
	}
	to, err := domain.ParseStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return domain.Case{}, invalidField("status", "must be Open or Closed")
	}
	caseID, err := idx.Parse(id)
	if err != nil {
		return domain.Case{}, ErrNotFound
	}

	var result domain.Case
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.Cases().GetCaseByID(ctx, caseID.String())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		from, changed, err := c.Transition(to, now(s.Now))
		if err != nil {
			return invalidField("status", "must be Open or Closed")
		}
		result = c
		if !changed {
			return nil
		}

		if err := tx.Cases().UpdateCaseStatus(ctx, c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		return s.Audit.Record(ctx, tx.Audit(), domain.AuditEntry{
			ActorID:      p.SubjectID,
			ActorRole:    string(d.Role),
			Action:       domain.ActionUpdatedStatus,
			TargetCaseID: &c.ID,
			Detail:       domain.StatusChangeDetail(from, to),
		})
	})
	if err != nil {
		return domain.Case{}, err
	}

	return result, nil
}
