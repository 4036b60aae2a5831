package custody

import (
	"github.com/ceyhunalp/tyche"
	"golang.org/x/xerrors"
)

// Account is the raffle's custody bookkeeping: the principal captured at
// investment time, the yield realized when the venue position is burned,
// and the per-depositor withdrawal ledger. Every one-shot transition is
// guarded by an explicit flag; zero-valued fields are never used as "not
// yet done" sentinels, since zero yield is a legitimate outcome.
type Account struct {
	PrincipalBefore uint64
	YieldRealized   int64
	Deficit         uint64
	Invested        bool
	VenueWithdrawn  bool
	Withdrawn       map[string]bool
}

// CanInvest checks the investment guards without committing anything, so
// the caller can validate before moving funds and capture after.
func (a *Account) CanInvest(balance uint64) error {
	if a.Invested {
		return xerrors.Errorf("invest: %w", tyche.ErrAlreadyDone)
	}
	if balance == 0 {
		return xerrors.New("nothing to invest")
	}
	return nil
}

// CaptureInvestment records the pool balance that moved to the venue. A
// second call fails before mutating anything: re-capturing would overwrite
// PrincipalBefore with a smaller balance and corrupt the reconciliation.
func (a *Account) CaptureInvestment(balance uint64) error {
	if err := a.CanInvest(balance); err != nil {
		return err
	}
	a.PrincipalBefore = balance
	a.Invested = true
	return nil
}

// ReconcileVenue splits the amount returned by the venue into principal and
// yield. It returns the surplus owed to the organizer, zero when the venue
// broke even or lost value. On a loss the deficit is recorded and principal
// withdrawals fail closed until it is covered.
func (a *Account) ReconcileVenue(returned uint64) (uint64, error) {
	if !a.Invested {
		return 0, xerrors.New("pool was never invested")
	}
	if a.VenueWithdrawn {
		return 0, xerrors.Errorf("venue withdrawal: %w", tyche.ErrAlreadyDone)
	}
	a.VenueWithdrawn = true
	a.YieldRealized = int64(returned) - int64(a.PrincipalBefore)
	if returned < a.PrincipalBefore {
		a.Deficit = a.PrincipalBefore - returned
		return 0, nil
	}
	return returned - a.PrincipalBefore, nil
}

// CanWithdraw checks the withdrawal guards for a depositor without
// recording anything. It fails while the principal is still at the venue
// and while a recorded deficit makes the pool unable to pay in full.
func (a *Account) CanWithdraw(key string) error {
	if a.Invested && !a.VenueWithdrawn {
		return xerrors.Errorf("withdraw principal: %w", tyche.ErrStillInvested)
	}
	if a.Deficit > 0 {
		return xerrors.Errorf("withdraw principal: %w", tyche.ErrShortfall)
	}
	if a.Withdrawn[key] {
		return xerrors.Errorf("withdraw principal: %w", tyche.ErrAlreadyWithdrawn)
	}
	return nil
}

// MarkWithdrawn records a depositor's principal withdrawal, exactly once
// per depositor.
func (a *Account) MarkWithdrawn(key string) error {
	if err := a.CanWithdraw(key); err != nil {
		return err
	}
	if a.Withdrawn == nil {
		a.Withdrawn = make(map[string]bool)
	}
	a.Withdrawn[key] = true
	return nil
}

// CoverDeficit clears the recorded shortfall and returns the amount the
// organizer must pay back into the pool.
func (a *Account) CoverDeficit() (uint64, error) {
	if a.Deficit == 0 {
		return 0, xerrors.Errorf("cover shortfall: %w", tyche.ErrAlreadyDone)
	}
	d := a.Deficit
	a.Deficit = 0
	return d, nil
}

// HasWithdrawn reports whether the depositor already took their principal.
func (a *Account) HasWithdrawn(key string) bool {
	return a.Withdrawn[key]
}
