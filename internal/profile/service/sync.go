package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"donorhub/internal/profile/models"
	dErrors "donorhub/pkg/domain-errors"
)

// syncExternal pushes the proposed address to every external system the
// profile is linked to, concurrently, with shared-context cancellation. Zero,
// one, or two calls are dispatched depending on which linkage IDs are
// populated. The caller decides whether a sync is needed at all.
//
// The call fails as a whole if any dispatched update fails; the caller must
// then withhold local persistence. A partial application, one system updated
// while the other failed, leaves the external systems diverged from the
// stale local record until a later successful update reconciles them. No
// compensation is attempted here.
func (s *Service) syncExternal(ctx context.Context, current *models.Profile, proposed models.Address) error {
	g, ctx := errgroup.WithContext(ctx)

	if current.BillingAccountID != "" {
		accountID := current.BillingAccountID
		g.Go(func() error {
			start := time.Now()
			err := s.billing.UpdateAddress(ctx, accountID, proposed)
			s.metrics.ObserveSync("billing", time.Since(start), err)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "billing address sync failed")
			}
			return nil
		})
	}

	if current.CRMAccountID != "" {
		accountID := current.CRMAccountID
		g.Go(func() error {
			start := time.Now()
			err := s.crm.UpdateAddress(ctx, accountID, proposed)
			s.metrics.ObserveSync("crm", time.Since(start), err)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "crm address sync failed")
			}
			return nil
		})
	}

	return g.Wait()
}
