package raffle

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/network"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/ledger"
)

func init() {
	network.RegisterMessages(&InitUnitRequest{}, &InitUnitReply{},
		&SetupRequest{}, &SetupReply{}, &FundRequest{}, &FundReply{},
		&MintCollectibleRequest{}, &MintCollectibleReply{},
		&EscrowRequest{}, &EscrowReply{}, &DepositRequest{}, &DepositReply{},
		&InvestRequest{}, &InvestReply{}, &RequestDrawRequest{},
		&RequestDrawReply{}, &DeliverRequest{}, &DeliverReply{},
		&WithdrawVenueRequest{}, &WithdrawVenueReply{},
		&WithdrawPrincipalRequest{}, &WithdrawPrincipalReply{},
		&CoverShortfallRequest{}, &CoverShortfallReply{},
		&ClaimRequest{}, &ClaimReply{}, &StatusRequest{}, &StatusReply{})
}

// InitUnitRequest wires the collaborator units into the service: the yield
// ratio of the venue and, optionally, the roster of a beacon playing the
// randomness oracle.
type InitUnitRequest struct {
	GainNum      uint64
	GainDen      uint64
	BeaconRoster *onet.Roster
}

type InitUnitReply struct{}

// SetupRequest creates a raffle instance from its configuration.
type SetupRequest struct {
	Cfg Config
}

type SetupReply struct {
	ID []byte
}

// FundRequest mints value to an account and approves the pool to pull it.
// This is an operation of the in-memory vault, not of the raffle.
type FundRequest struct {
	Owner  kyber.Point
	Amount uint64
}

type FundReply struct{}

// MintCollectibleRequest registers a collectible under the owner in the
// in-memory registry.
type MintCollectibleRequest struct {
	Owner         kyber.Point
	CollectibleID uint64
}

type MintCollectibleReply struct{}

type EscrowRequest struct {
	ID            []byte
	CollectibleID uint64
	Sig           []byte
}

type EscrowReply struct{}

type DepositRequest struct {
	ID        []byte
	Depositor kyber.Point
	Amount    uint64
	Sig       []byte
}

type DepositReply struct {
	Range ledger.Range
}

type InvestRequest struct {
	ID  []byte
	Sig []byte
}

type InvestReply struct {
	Principal uint64
}

// RequestDrawRequest admits a randomness request. Round is the beacon
// round expected to answer it; ignored when the service is wired to a
// beacon, which quotes the round itself.
type RequestDrawRequest struct {
	ID    []byte
	Round uint64
}

type RequestDrawReply struct {
	RequestID uint64
}

// DeliverRequest injects an oracle delivery. When the service is wired to
// a beacon it produces these itself; external oracles use this message.
type DeliverRequest struct {
	ID         []byte
	RequestID  uint64
	Randomness tyche.Randomness
}

type DeliverReply struct {
	Winning uint64
}

type WithdrawVenueRequest struct {
	ID []byte
}

type WithdrawVenueReply struct {
	Yield int64
}

type WithdrawPrincipalRequest struct {
	ID        []byte
	Depositor kyber.Point
	Sig       []byte
}

type WithdrawPrincipalReply struct {
	Amount uint64
}

type CoverShortfallRequest struct {
	ID  []byte
	Sig []byte
}

type CoverShortfallReply struct {
	Amount uint64
}

type ClaimRequest struct {
	ID        []byte
	Depositor kyber.Point
	Sig       []byte
}

type ClaimReply struct {
	CollectibleID uint64
}

type StatusRequest struct {
	ID []byte
}

type StatusReply struct {
	Status Status
}
