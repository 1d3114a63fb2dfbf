package commission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
)

// Service drives the commission lifecycle and payout grouping. Batch
// operations check the full set before the first write and run inside
// one transaction: they either fully apply or leave the data untouched.
type Service struct {
	repo Repository
}

// NewService creates a commission service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a commission service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Validate moves the given pending commissions to eligible.
func (s *Service) Validate(ctx context.Context, shopID uint, ids []uint) ([]models.Commission, error) {
	_ = ctx
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "commission_ids must not be empty"}
	}

	var out []models.Commission
	err := s.repo.Transaction(func(tx Repository) error {
		commissions, err := loadBatch(tx, shopID, ids)
		if err != nil {
			return err
		}
		for i := range commissions {
			c := &commissions[i]
			if !models.CanTransitionCommission(c.Status, models.COMMISSION_STATUS_ELIGIBLE) {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d is %s, only pending commissions can be validated", c.ID, c.Status),
				}
			}
		}
		for i := range commissions {
			if err := tx.UpdateCommission(shopID, commissions[i].ID, map[string]interface{}{
				"status": models.COMMISSION_STATUS_ELIGIBLE,
			}); err != nil {
				return err
			}
			commissions[i].Status = models.COMMISSION_STATUS_ELIGIBLE
		}
		out = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve moves the given eligible commissions to approved. A commission
// with an unresolved fraud flag fails the whole batch; the flag has to
// be resolved first through a separate call.
func (s *Service) Approve(ctx context.Context, shopID uint, ids []uint) ([]models.Commission, error) {
	_ = ctx
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "commission_ids must not be empty"}
	}

	var out []models.Commission
	err := s.repo.Transaction(func(tx Repository) error {
		commissions, err := loadBatch(tx, shopID, ids)
		if err != nil {
			return err
		}
		for i := range commissions {
			c := &commissions[i]
			if !models.CanTransitionCommission(c.Status, models.COMMISSION_STATUS_APPROVED) {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d is %s, only eligible commissions can be approved", c.ID, c.Status),
				}
			}
			if c.HasUnresolvedFlags() {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d has unresolved fraud flags and cannot be approved", c.ID),
				}
			}
		}
		for i := range commissions {
			if err := tx.UpdateCommission(shopID, commissions[i].ID, map[string]interface{}{
				"status": models.COMMISSION_STATUS_APPROVED,
			}); err != nil {
				return err
			}
			commissions[i].Status = models.COMMISSION_STATUS_APPROVED
		}
		out = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject reverses the given commissions. Any non-terminal commission can
// be reversed, fraud flags notwithstanding, but a reason is mandatory.
func (s *Service) Reject(ctx context.Context, shopID uint, ids []uint, reason string) ([]models.Commission, error) {
	_ = ctx
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "commission_ids must not be empty"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Message: "a reason is required to reject commissions"}
	}

	var out []models.Commission
	err := s.repo.Transaction(func(tx Repository) error {
		commissions, err := loadBatch(tx, shopID, ids)
		if err != nil {
			return err
		}
		for i := range commissions {
			c := &commissions[i]
			if !models.CanTransitionCommission(c.Status, models.COMMISSION_STATUS_REVERSED) {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d is already %s and cannot be reversed", c.ID, c.Status),
				}
			}
		}
		for i := range commissions {
			if err := tx.UpdateCommission(shopID, commissions[i].ID, map[string]interface{}{
				"status":          models.COMMISSION_STATUS_REVERSED,
				"reversal_reason": reason,
			}); err != nil {
				return err
			}
			commissions[i].Status = models.COMMISSION_STATUS_REVERSED
			commissions[i].ReversalReason = reason
		}
		out = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveFraudFlag closes a fraud flag. Resolution is one-way and does
// not advance the flagged commission; approval stays a separate call.
func (s *Service) ResolveFraudFlag(ctx context.Context, shopID, flagID uint) (*models.FraudFlag, error) {
	_ = ctx
	flag, err := s.repo.GetFraudFlag(shopID, flagID)
	if err != nil {
		return nil, err
	}
	if flag.Resolved {
		return flag, nil
	}
	flag.Resolve()
	if err := s.repo.SaveFraudFlag(flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// CreatePayoutRun groups the given commissions into a new draft run.
// Every commission must be eligible or approved, free of any other run
// and in the same currency.
func (s *Service) CreatePayoutRun(ctx context.Context, shopID uint, periodStart, periodEnd time.Time, ids []uint) (*models.PayoutRun, error) {
	_ = ctx
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "commission_ids must not be empty"}
	}
	if !periodEnd.After(periodStart) {
		return nil, &ValidationError{Message: "period_end must be after period_start"}
	}

	var run *models.PayoutRun
	err := s.repo.Transaction(func(tx Repository) error {
		commissions, err := loadBatch(tx, shopID, ids)
		if err != nil {
			return err
		}

		total := 0.0
		currency := ""
		for i := range commissions {
			c := &commissions[i]
			if !payableStatus(c.Status) {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d is %s, only eligible or approved commissions can enter a payout run", c.ID, c.Status),
				}
			}
			if c.PayoutRunID != nil {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d already belongs to payout run %d", c.ID, *c.PayoutRunID),
				}
			}
			if currency == "" {
				currency = c.Currency
			} else if c.Currency != currency {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d is in %s but the run is in %s; a payout run carries a single currency", c.ID, c.Currency, currency),
				}
			}
			total += c.Amount
		}

		run = &models.PayoutRun{
			ShopID:      shopID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Status:      models.PAYOUT_RUN_STATUS_DRAFT,
			TotalAmount: models.RoundCents(total),
			Currency:    currency,
		}
		if err := tx.CreatePayoutRun(run); err != nil {
			return err
		}
		for i := range commissions {
			if err := tx.UpdateCommission(shopID, commissions[i].ID, map[string]interface{}{
				"payout_run_id": run.ID,
			}); err != nil {
				return err
			}
			commissions[i].PayoutRunID = &run.ID
		}
		run.Commissions = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ApprovePayoutRun pays out a draft run: every member commission becomes
// paid and the run is stamped with the optional payout reference. When
// any member is no longer payable at execution time the whole operation
// fails and nothing is applied.
func (s *Service) ApprovePayoutRun(ctx context.Context, shopID, runID uint, payoutReference string) (*models.PayoutRun, error) {
	_ = ctx
	var run *models.PayoutRun
	err := s.repo.Transaction(func(tx Repository) error {
		loaded, err := tx.GetPayoutRunWithCommissions(shopID, runID)
		if err != nil {
			return err
		}
		if !loaded.IsDraft() {
			return &GuardError{
				Reason: fmt.Sprintf("payout run %d is %s, only draft runs can be approved", loaded.ID, loaded.Status),
			}
		}

		for i := range loaded.Commissions {
			c := &loaded.Commissions[i]
			if !payableStatus(c.Status) {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d is %s and cannot be paid, the run was not applied", c.ID, c.Status),
				}
			}
			if c.HasUnresolvedFlags() {
				return &GuardError{
					CommissionID: c.ID,
					Reason:       fmt.Sprintf("commission %d has unresolved fraud flags, the run was not applied", c.ID),
				}
			}
		}

		now := time.Now()
		for i := range loaded.Commissions {
			c := &loaded.Commissions[i]
			if err := tx.UpdateCommission(shopID, c.ID, map[string]interface{}{
				"status":  models.COMMISSION_STATUS_PAID,
				"paid_at": &now,
			}); err != nil {
				return err
			}
			c.Status = models.COMMISSION_STATUS_PAID
			c.PaidAt = &now
		}

		if err := tx.UpdatePayoutRun(shopID, loaded.ID, map[string]interface{}{
			"status":           models.PAYOUT_RUN_STATUS_APPROVED,
			"approved_at":      &now,
			"payout_reference": payoutReference,
		}); err != nil {
			return err
		}
		loaded.Status = models.PAYOUT_RUN_STATUS_APPROVED
		loaded.ApprovedAt = &now
		loaded.PayoutReference = payoutReference
		run = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// DiscardPayoutRun deletes a draft run and releases its commissions back
// into the payable pool. Approved runs are immutable.
func (s *Service) DiscardPayoutRun(ctx context.Context, shopID, runID uint) error {
	_ = ctx
	return s.repo.Transaction(func(tx Repository) error {
		run, err := tx.GetPayoutRunWithCommissions(shopID, runID)
		if err != nil {
			return err
		}
		if !run.IsDraft() {
			return &GuardError{
				Reason: fmt.Sprintf("payout run %d is %s, only draft runs can be discarded", run.ID, run.Status),
			}
		}
		if err := tx.ClearPayoutRunMembers(shopID, run.ID); err != nil {
			return err
		}
		return tx.DeletePayoutRun(shopID, run.ID)
	})
}

// TermsChangeResult reports what a payout-terms change touched.
type TermsChangeResult struct {
	Affiliate  *models.Affiliate `json:"affiliate"`
	Recomputed int64             `json:"recomputed_commissions"`
}

// ChangePayoutTerms updates an affiliate's payout terms. The admin picks
// one of two resolutions: apply the new terms to future commissions only,
// or additionally rebase the eligible date of every non-terminal
// commission of that affiliate onto the new term length.
func (s *Service) ChangePayoutTerms(ctx context.Context, shopID, affiliateID uint, days int, recompute bool) (*TermsChangeResult, error) {
	_ = ctx
	if days < 0 {
		return nil, &ValidationError{Message: "payout_terms_days must not be negative"}
	}

	result := &TermsChangeResult{}
	err := s.repo.Transaction(func(tx Repository) error {
		affiliate, err := tx.GetAffiliate(shopID, affiliateID)
		if err != nil {
			return err
		}
		affiliate.PayoutTermsDays = days
		if err := tx.SaveAffiliate(affiliate); err != nil {
			return err
		}
		result.Affiliate = affiliate

		if recompute {
			n, err := tx.RecomputeEligibleDates(shopID, affiliateID, days)
			if err != nil {
				return err
			}
			result.Recomputed = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadBatch fetches the commissions of one batch call and fails when any
// requested id is missing, naming the absent ids.
func loadBatch(repo Repository, shopID uint, ids []uint) ([]models.Commission, error) {
	unique := uniqueIDs(ids)
	commissions, err := repo.GetCommissionsWithFlags(shopID, unique)
	if err != nil {
		return nil, err
	}
	if len(commissions) != len(unique) {
		found := make(map[uint]struct{}, len(commissions))
		for i := range commissions {
			found[commissions[i].ID] = struct{}{}
		}
		missing := make([]uint, 0)
		for _, id := range unique {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &ValidationError{Message: fmt.Sprintf("commissions not found: %v", missing)}
	}
	return commissions, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func payableStatus(status string) bool {
	return status == models.COMMISSION_STATUS_ELIGIBLE || status == models.COMMISSION_STATUS_APPROVED
}
