package tyche

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"
)

var randSuite = pairing.NewSuiteBn256()

// GenesisSeed is the message signed by the randomness beacon in round 0.
// Every later round signs LE64(round) || previous signature.
const GenesisSeed = "tyche_genesis"

// Randomness is one beacon round. Prev is the message that was signed for
// this round, Value is the collective signature over it. Use the hash of
// Value as the random quantity, never Value itself.
type Randomness struct {
	Round uint64
	Prev  []byte
	Value []byte
}

// Verify checks the round signature against the beacon's collective public
// key (a bn256 G2 point).
func (r *Randomness) Verify(public kyber.Point) error {
	return bls.Verify(randSuite, public, r.Prev, r.Value)
}

// Collectible identifies the non-fungible asset held in escrow for the
// lifetime of a raffle.
type Collectible struct {
	ID uint64
}

// CoinVault is the fungible-asset custodian. TransferIn pulls from a prior
// allowance granted by the owner via Approve; Balance reports the pool's
// own holdings.
type CoinVault interface {
	Approve(owner kyber.Point, amount uint64) error
	TransferIn(from kyber.Point, amount uint64) error
	TransferOut(to kyber.Point, amount uint64) error
	Balance() uint64
}

// CollectibleReceiver is the receipt acknowledgment hook a registry invokes
// before ownership of a collectible moves to the receiver.
type CollectibleReceiver interface {
	OnCollectibleReceived(from kyber.Point, id uint64) error
}

// CollectibleRegistry tracks ownership of collectibles.
type CollectibleRegistry interface {
	TransferIn(from kyber.Point, id uint64, to CollectibleReceiver) error
	TransferOut(to kyber.Point, id uint64) error
}

// YieldVenue invests pooled principal. Withdraw burns the entire share
// position; there is no partial withdrawal.
type YieldVenue interface {
	Deposit(amount uint64) (uint64, error)
	Withdraw() (uint64, error)
}

// RandomnessSource is the outgoing half of the oracle boundary. Request
// registers the request and quotes the beacon round that will answer it;
// the delivery arrives later as an authenticated Randomness carrying the
// same request identifier and round number.
type RandomnessSource interface {
	Request(id uint64) (uint64, error)
}
