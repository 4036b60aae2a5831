package dummy

// The dummy package provides in-memory implementations of the external
// collaborators a raffle is wired to: a fungible vault, a collectible
// registry, a yield venue and a randomness oracle. They are used by tests,
// the command-line driver and the simulation; a production deployment
// replaces them behind the same interfaces.

import (
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"

	"github.com/ceyhunalp/tyche/utils"
)

// Vault is an in-memory fungible ledger with approve-then-pull semantics.
// Pool is the amount held in the raffle's custody; TransferIn draws down an
// allowance previously granted by the owner.
type Vault struct {
	balances   map[string]uint64
	allowances map[string]uint64
	pool       uint64
}

func NewVault() *Vault {
	return &Vault{
		balances:   make(map[string]uint64),
		allowances: make(map[string]uint64),
	}
}

// Mint credits an owner's account.
func (v *Vault) Mint(owner kyber.Point, amount uint64) error {
	key, err := utils.PointToHex(owner)
	if err != nil {
		return err
	}
	v.balances[key] += amount
	return nil
}

// Approve grants the pool the right to pull up to amount from the owner.
func (v *Vault) Approve(owner kyber.Point, amount uint64) error {
	key, err := utils.PointToHex(owner)
	if err != nil {
		return err
	}
	v.allowances[key] = amount
	return nil
}

// TransferIn pulls amount from the owner into the pool, capped by both the
// allowance and the balance.
func (v *Vault) TransferIn(from kyber.Point, amount uint64) error {
	key, err := utils.PointToHex(from)
	if err != nil {
		return err
	}
	if v.allowances[key] < amount {
		return xerrors.Errorf("allowance of %s is below %d", key[:8], amount)
	}
	if v.balances[key] < amount {
		return xerrors.Errorf("balance of %s is below %d", key[:8], amount)
	}
	v.allowances[key] -= amount
	v.balances[key] -= amount
	v.pool += amount
	return nil
}

// TransferOut pays amount from the pool to the given account.
func (v *Vault) TransferOut(to kyber.Point, amount uint64) error {
	key, err := utils.PointToHex(to)
	if err != nil {
		return err
	}
	if v.pool < amount {
		return xerrors.Errorf("pool balance is below %d", amount)
	}
	v.pool -= amount
	v.balances[key] += amount
	return nil
}

// Balance is the pool's own holdings.
func (v *Vault) Balance() uint64 {
	return v.pool
}

// BalanceOf reports an owner's free balance.
func (v *Vault) BalanceOf(owner kyber.Point) uint64 {
	key, err := utils.PointToHex(owner)
	if err != nil {
		return 0
	}
	return v.balances[key]
}

// debitPool and creditPool move value between the pool and the venue. They
// are only reachable through the Venue.
func (v *Vault) debitPool(amount uint64) error {
	if v.pool < amount {
		return xerrors.Errorf("pool balance is below %d", amount)
	}
	v.pool -= amount
	return nil
}

func (v *Vault) creditPool(amount uint64) {
	v.pool += amount
}
