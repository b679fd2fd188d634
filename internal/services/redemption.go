package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/loyalty/internal/loyalty"
	"github.com/example/loyalty/internal/models"
)

// Lifecycle failures surfaced to handlers.
var (
	ErrNotRedeemable    = errors.New("redemption is not in a redeemable state")
	ErrAlreadyConcluded = errors.New("redemption has already concluded")
)

// RedemptionService manages the redemption lifecycle: creation with an
// atomic balance check, in-store verification, consumption, manual
// cancellation and the expiry sweep.
type RedemptionService struct {
	db          *gorm.DB
	ledger      *LedgerService
	evaluator   *loyalty.Evaluator
	codeLength  int
	codeRetries int
	expiry      time.Duration
}

func NewRedemptionService(db *gorm.DB, ledger *LedgerService, evaluator *loyalty.Evaluator, codeLength, codeRetries int, expiry time.Duration) *RedemptionService {
	return &RedemptionService{
		db:          db,
		ledger:      ledger,
		evaluator:   evaluator,
		codeLength:  codeLength,
		codeRetries: codeRetries,
		expiry:      expiry,
	}
}

// Create redeems a reward for a customer. Eligibility and balance are
// re-checked inside the insert transaction under a FOR UPDATE lock on
// the customer row, so two concurrent redeems against one redemption's
// worth of points cannot both commit: the loser sees the winner's
// redemption in its balance read and fails with insufficient points.
func (s *RedemptionService) Create(customerID, rewardID uuid.UUID, now time.Time) (*models.Redemption, error) {
	var created models.Redemption

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&customer, "id = ?", customerID).Error; err != nil {
			return err
		}

		var reward models.Reward
		if err := tx.First(&reward, "id = ?", rewardID).Error; err != nil {
			return err
		}

		var priorCount int64
		if err := tx.Model(&models.Redemption{}).
			Where("customer_id = ? AND reward_id = ?", customerID, rewardID).
			Count(&priorCount).Error; err != nil {
			return err
		}

		if err := s.evaluator.Evaluate(&reward, priorCount, now); err != nil {
			return err
		}

		balance, err := s.ledger.BalanceTx(tx, customerID, reward.BusinessID)
		if err != nil {
			return err
		}
		if balance < int64(reward.PointsRequired) {
			return loyalty.ErrInsufficientPoints
		}

		record := models.Redemption{
			CustomerID: customerID,
			BusinessID: reward.BusinessID,
			RewardID:   reward.ID,
			PointsUsed: reward.PointsRequired,
			Status:     models.RedemptionStatusConfirmed,
			ExpiresAt:  now.Add(s.expiry),
		}

		if _, err := loyalty.InsertWithUniqueCode(s.codeLength, s.codeRetries, func(code string) error {
			attempt := record
			attempt.RedemptionCode = code
			// Savepoint per attempt: a code collision must not poison
			// the enclosing transaction.
			if err := tx.Transaction(func(inner *gorm.DB) error {
				return inner.Create(&attempt).Error
			}); err != nil {
				return err
			}
			created = attempt
			return nil
		}); err != nil {
			return err
		}

		// The per-reward cache feeds the max-total-redemptions cap, so
		// it moves atomically with the insert.
		return tx.Model(&models.Reward{}).
			Where("id = ?", reward.ID).
			UpdateColumn("total_redemptions", gorm.Expr("total_redemptions + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// VerifyResult pairs a redemption with its derived validity flag.
type VerifyResult struct {
	Redemption *models.Redemption
	Valid      bool
}

// VerifyByCode looks a redemption up by its in-store code.
func (s *RedemptionService) VerifyByCode(code string, now time.Time) (*VerifyResult, error) {
	var record models.Redemption
	if err := s.db.Preload("Customer").Preload("Reward").
		First(&record, "redemption_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &VerifyResult{Redemption: &record, Valid: record.Redeemable(now)}, nil
}

// UseParams carries the in-store consumption details.
type UseParams struct {
	UsedBy            uuid.UUID
	TransactionAmount *float64
	DiscountApplied   *float64
}

// MarkUsed consumes a redeemable redemption, stamping when, by whom and
// for what amounts. Anything not currently redeemable is refused.
func (s *RedemptionService) MarkUsed(id uuid.UUID, params UseParams, now time.Time) (*models.Redemption, error) {
	var record models.Redemption

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		if !record.Redeemable(now) {
			return ErrNotRedeemable
		}

		record.Status = models.RedemptionStatusUsed
		record.UsedAt = &now
		record.UsedBy = &params.UsedBy
		record.TransactionAmount = params.TransactionAmount
		record.DiscountApplied = params.DiscountApplied
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Cancel manually concludes a pending or confirmed redemption,
// releasing its points back to the customer's balance.
func (s *RedemptionService) Cancel(id uuid.UUID) (*models.Redemption, error) {
	var record models.Redemption

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		if record.Status != models.RedemptionStatusPending &&
			record.Status != models.RedemptionStatusConfirmed {
			return ErrAlreadyConcluded
		}

		record.Status = models.RedemptionStatusCancelled
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// ExpireSweep transitions every overdue pending/confirmed redemption to
// expired and reports how many rows moved. Re-running it when nothing
// has newly expired changes nothing.
func (s *RedemptionService) ExpireSweep(now time.Time) (int64, error) {
	result := s.db.Model(&models.Redemption{}).
		Where("status IN ? AND expires_at < ?",
			[]string{models.RedemptionStatusPending, models.RedemptionStatusConfirmed}, now).
		Update("status", models.RedemptionStatusExpired)
	return result.RowsAffected, result.Error
}
