package loyalty

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/example/loyalty/internal/models"
)

// Reasons a reward cannot currently be redeemed.
var (
	ErrRewardInactive     = errors.New("reward is not active")
	ErrRewardNotStarted   = errors.New("reward is not yet valid")
	ErrRewardEnded        = errors.New("reward validity period has ended")
	ErrRewardExhausted    = errors.New("reward redemption limit reached")
	ErrCustomerLimit      = errors.New("customer redemption limit reached for this reward")
	ErrDayNotAvailable    = errors.New("reward is not available today")
	ErrTimeNotAvailable   = errors.New("reward is not available at this time")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidTimeRange   = errors.New("availability window must be HH:MM with start before end")
)

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// Evaluator decides reward eligibility in a fixed reference timezone.
// The weekday and time-of-day windows are resolved against Location,
// never against locale-formatted strings.
type Evaluator struct {
	Location *time.Location
}

func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{Location: loc}
}

// Evaluate runs the eligibility checks in order and returns the first
// failure, or nil when the reward is redeemable. customerRedemptions is
// the count of this customer's prior redemptions of this reward. The
// points-balance check belongs to the caller, which owns the ledger.
func (e *Evaluator) Evaluate(r *models.Reward, customerRedemptions int64, now time.Time) error {
	if !r.IsActive {
		return ErrRewardInactive
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrRewardNotStarted
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return ErrRewardEnded
	}
	if r.MaxTotalRedemptions != nil && r.TotalRedemptions >= *r.MaxTotalRedemptions {
		return ErrRewardExhausted
	}
	if r.MaxRedemptionsPerCustomer != nil && customerRedemptions >= int64(*r.MaxRedemptionsPerCustomer) {
		return ErrCustomerLimit
	}

	local := now.In(e.Location)
	if len(r.AvailableDays) > 0 {
		today := weekdayNames[local.Weekday()]
		found := false
		for _, d := range r.AvailableDays {
			if strings.EqualFold(strings.TrimSpace(d), today) {
				found = true
				break
			}
		}
		if !found {
			return ErrDayNotAvailable
		}
	}

	if r.AvailableTimeStart != "" && r.AvailableTimeEnd != "" {
		// HH:MM compares correctly as a string; bounds are inclusive.
		clock := local.Format("15:04")
		if clock < r.AvailableTimeStart || clock > r.AvailableTimeEnd {
			return ErrTimeNotAvailable
		}
	}

	return nil
}

var timeWindowPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateTimeWindow checks the availability window on a reward before
// it is saved. Both bounds must be present together, well-formed, and
// strictly ordered.
func ValidateTimeWindow(start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	if start == "" || end == "" {
		return ErrInvalidTimeRange
	}
	if !timeWindowPattern.MatchString(start) || !timeWindowPattern.MatchString(end) {
		return ErrInvalidTimeRange
	}
	if start >= end {
		return ErrInvalidTimeRange
	}
	return nil
}
