package phase

import (
	"time"

	"golang.org/x/xerrors"
)

// Phase is the lifecycle stage of a raffle, derived from wall-clock time.
type Phase int

const (
	// DepositOpen accepts escrow and deposits.
	DepositOpen Phase = iota
	// InterestAccrual is the investment window after deposits close.
	InterestAccrual
	// Settlement allows draws, withdrawals and the winner's claim.
	Settlement
)

func (p Phase) String() string {
	switch p {
	case DepositOpen:
		return "deposit_open"
	case InterestAccrual:
		return "interest_accrual"
	case Settlement:
		return "settlement"
	}
	return "unknown"
}

// Schedule holds the two immutable phase boundaries. There is no stored
// phase flag: every caller re-derives the phase at call time, so the phase
// can never drift from wall-clock reality.
type Schedule struct {
	DepositClose time.Time
	RaffleEnd    time.Time
}

func NewSchedule(depositClose, raffleEnd time.Time) (*Schedule, error) {
	if !depositClose.Before(raffleEnd) {
		return nil, xerrors.New("deposit close must precede raffle end")
	}
	return &Schedule{DepositClose: depositClose, RaffleEnd: raffleEnd}, nil
}

// At derives the phase for time t. Both boundaries belong to the earlier
// phase: deposits are accepted at the close instant itself.
func (s *Schedule) At(t time.Time) Phase {
	if !t.After(s.DepositClose) {
		return DepositOpen
	}
	if !t.After(s.RaffleEnd) {
		return InterestAccrual
	}
	return Settlement
}
