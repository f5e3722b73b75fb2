package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

// authorize runs the policy for p and action, counts the decision and maps
// a denial onto ErrUnauthorized or ErrForbidden.
func authorize(ctx context.Context, m *metricsx.Metrics, p jwtx.Principal, action policy.Action) (policy.Decision, error) {
	d := policy.Authorize(p, action)
	return d, observeDecision(ctx, m, p, action, d)
}

func observeDecision(ctx context.Context, m *metricsx.Metrics, p jwtx.Principal, action policy.Action, d policy.Decision) error {
	m.ObserveAuthz(string(action), d.Effect.String())

	switch d.Effect {
	case policy.Allow:
		return nil
	case policy.DenyUnauthorized:
		return ErrUnauthorized
	default:
		slogx.FromContext(ctx).Info("authorization denied",
			slog.String("action", string(action)),
			slog.String("subject", p.SubjectID),
			slog.String("role", p.Role),
		)
		return ErrForbidden
	}
}
