package dummy

import (
	"golang.org/x/xerrors"
)

// Venue is an in-memory yield venue. Deposits move value out of the vault
// pool and mint shares 1:1; Withdraw burns the entire position and pays
// held * GainNum / GainDen back into the pool, so tests can exercise
// positive yield, zero yield and loss.
type Venue struct {
	vault   *Vault
	GainNum uint64
	GainDen uint64
	held    uint64
	shares  uint64
}

func NewVenue(vault *Vault, gainNum, gainDen uint64) *Venue {
	if gainDen == 0 {
		gainDen = 1
	}
	return &Venue{vault: vault, GainNum: gainNum, GainDen: gainDen}
}

// Deposit invests amount from the vault pool and returns the minted shares.
func (v *Venue) Deposit(amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, xerrors.New("nothing to deposit")
	}
	if err := v.vault.debitPool(amount); err != nil {
		return 0, err
	}
	v.held += amount
	v.shares += amount
	return amount, nil
}

// Withdraw burns the entire share position and returns the payout. There
// is no partial withdrawal.
func (v *Venue) Withdraw() (uint64, error) {
	if v.shares == 0 {
		return 0, xerrors.New("no position to withdraw")
	}
	payout := v.held * v.GainNum / v.GainDen
	v.held = 0
	v.shares = 0
	v.vault.creditPool(payout)
	return payout, nil
}

// Position reports the currently held principal.
func (v *Venue) Position() uint64 {
	return v.held
}
