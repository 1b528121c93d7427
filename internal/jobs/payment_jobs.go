package jobs

import (
	"context"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/logger"
)

const (
	// reconcileGracePeriod keeps the reconciler off payments so fresh the
	// buyer is likely still on the provider's payment page.
	reconcileGracePeriod = 2 * time.Minute

	// jobBatchSize bounds one run; the next run picks up the remainder.
	jobBatchSize = 100
)

// ReconcilePendingPayments polls the provider for payments stuck PENDING.
// Lost callbacks are the usual cause; the query path reconciles through the
// same idempotent transition as the webhook, so overlap with a late callback
// is harmless.
func (jr *JobRunner) ReconcilePendingPayments() {
	jr.runWithRecovery("ReconcilePendingPayments", func() {
		ctx := context.Background()
		cutoff := time.Now().Add(-reconcileGracePeriod)

		pending, err := jr.store.PaymentRepository.ListPendingCreatedBefore(ctx, cutoff, jobBatchSize)
		if err != nil {
			logger.Error("Failed to list pending payments", "error", err)
			return
		}

		reconciled := 0
		for _, p := range pending {
			if p.Type == domain.PaymentTypeRefund {
				continue
			}
			updated, err := jr.payments.QueryStatus(ctx, p.ID)
			if err != nil {
				logger.Error("Failed to reconcile payment",
					"payment_no", p.PaymentNo, "error", err)
				continue
			}
			if updated.Status != domain.PaymentStatusPending {
				reconciled++
				logger.Info("Payment reconciled from provider",
					"payment_no", p.PaymentNo, "status", updated.Status)
			}
		}

		logger.Info("Pending payment reconciliation completed",
			"checked", len(pending), "reconciled", reconciled)
	})
}

// ExpireStalePayments cancels payments that outlived the provider-side
// payment window. The provider closes its trade at the same expiry, so a
// cancelled row cannot race a genuine late success.
func (jr *JobRunner) ExpireStalePayments() {
	jr.runWithRecovery("ExpireStalePayments", func() {
		ctx := context.Background()
		expiry := time.Duration(jr.config.Payment.ExpiryMinutes) * time.Minute
		cutoff := time.Now().Add(-expiry)

		stale, err := jr.store.PaymentRepository.ListPendingCreatedBefore(ctx, cutoff, jobBatchSize)
		if err != nil {
			logger.Error("Failed to list stale payments", "error", err)
			return
		}

		expired := 0
		for _, p := range stale {
			if p.Type == domain.PaymentTypeRefund {
				continue
			}
			// Ask the provider one last time before giving up on the row.
			updated, err := jr.payments.QueryStatus(ctx, p.ID)
			if err == nil && updated.Status != domain.PaymentStatusPending {
				continue
			}
			if _, err := jr.payments.CancelPayment(ctx, p.ID, 0); err != nil {
				if !domain.IsStateConflictError(err) {
					logger.Error("Failed to expire payment",
						"payment_no", p.PaymentNo, "error", err)
				}
				continue
			}
			expired++
			logger.Info("Stale payment expired", "payment_no", p.PaymentNo)
		}

		logger.Info("Stale payment expiry completed",
			"checked", len(stale), "expired", expired)
	})
}
