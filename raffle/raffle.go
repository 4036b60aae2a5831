package raffle

import (
	"time"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/protobuf"
	"golang.org/x/xerrors"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/custody"
	"github.com/ceyhunalp/tyche/draw"
	"github.com/ceyhunalp/tyche/ledger"
	"github.com/ceyhunalp/tyche/phase"
	"github.com/ceyhunalp/tyche/utils"
)

// Config is the immutable raffle configuration, set exactly once at
// creation. Timestamps are unix seconds; OraclePublic is the marshaled
// bn256 G2 collective key of the randomness beacon.
type Config struct {
	Organizer    kyber.Point
	Asset        string
	DepositClose int64
	RaffleEnd    int64
	RetryWindow  int64
	OraclePublic []byte
	Venue        string
	Nonce        []byte
}

// State is everything a raffle persists: configuration, escrow, the ticket
// ledger, custody accounting and the draw state. It protobuf-encodes as a
// whole into one storage record.
type State struct {
	ID          []byte
	Cfg         Config
	Escrowed    bool
	Collectible tyche.Collectible
	Ledger      ledger.Ledger
	Custody     custody.Account
	Draw        draw.State
}

// Collaborators are the external units a raffle operates through.
type Collaborators struct {
	Vault    tyche.CoinVault
	Registry tyche.CollectibleRegistry
	Venue    tyche.YieldVenue
	Source   tyche.RandomnessSource
}

// Raffle is the settlement gateway: one coordinating aggregate owning all
// raffle state, validating phase and ownership before every mutation. It is
// not safe for unsynchronized concurrent use; the service serializes access.
type Raffle struct {
	State State

	col       Collaborators
	schedule  *phase.Schedule
	oracleKey kyber.Point
	now       func() time.Time
}

// New creates a raffle from its configuration. The clock is injectable for
// tests; nil defaults to time.Now.
func New(cfg Config, col Collaborators, now func() time.Time) (*Raffle, error) {
	sched, err := phase.NewSchedule(time.Unix(cfg.DepositClose, 0),
		time.Unix(cfg.RaffleEnd, 0))
	if err != nil {
		return nil, err
	}
	if cfg.Organizer == nil {
		return nil, xerrors.New("missing organizer identity")
	}
	if cfg.RetryWindow <= 0 {
		return nil, xerrors.New("retry window must be positive")
	}
	oracleKey, err := utils.UnmarshalRandPoint(cfg.OraclePublic)
	if err != nil {
		return nil, xerrors.Errorf("bad oracle identity: %v", err)
	}
	buf, err := protobuf.Encode(&cfg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode config: %v", err)
	}
	r := &Raffle{
		State:     State{ID: utils.Digest(buf), Cfg: cfg},
		col:       col,
		schedule:  sched,
		oracleKey: oracleKey,
		now:       now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Wire replaces the collaborator set, used when a restored raffle is
// re-attached to freshly initialized units.
func (r *Raffle) Wire(col Collaborators) {
	r.col = col
}

// Restore rebuilds the aggregate around a decoded state record.
func Restore(st State, col Collaborators, now func() time.Time) (*Raffle, error) {
	r, err := New(st.Cfg, col, now)
	if err != nil {
		return nil, err
	}
	r.State = st
	return r, nil
}

func (r *Raffle) phaseNow() phase.Phase {
	return r.schedule.At(r.now())
}

func (r *Raffle) retryWindow() time.Duration {
	return time.Duration(r.State.Cfg.RetryWindow) * time.Second
}

// Escrow places the organizer's collectible into the raffle's custody. Only
// allowed before deposits close, exactly once.
func (r *Raffle) Escrow(collectibleID uint64, sig []byte) error {
	if r.phaseNow() != phase.DepositOpen {
		return xerrors.Errorf("escrow: %w", tyche.ErrPhaseViolation)
	}
	if r.State.Escrowed {
		return xerrors.Errorf("escrow: %w", tyche.ErrAlreadyDone)
	}
	digest := EscrowDigest(r.State.ID, collectibleID)
	if err := utils.SchnorrVerify(r.State.Cfg.Organizer, digest, sig); err != nil {
		return xerrors.Errorf("escrow: %w", tyche.ErrUnauthorized)
	}
	// the registry calls OnCollectibleReceived before moving ownership
	err := r.col.Registry.TransferIn(r.State.Cfg.Organizer, collectibleID, r)
	if err != nil {
		return xerrors.Errorf("escrow transfer: %v", err)
	}
	return nil
}

// OnCollectibleReceived is the registry's receipt acknowledgment hook. The
// escrow it records is the single-claim guard for the raffle's lifetime.
func (r *Raffle) OnCollectibleReceived(from kyber.Point, id uint64) error {
	if r.State.Escrowed {
		return xerrors.Errorf("escrow hook: %w", tyche.ErrAlreadyDone)
	}
	if !from.Equal(r.State.Cfg.Organizer) {
		return xerrors.Errorf("escrow hook: %w", tyche.ErrUnauthorized)
	}
	r.State.Escrowed = true
	r.State.Collectible = tyche.Collectible{ID: id}
	return nil
}

// Deposit pulls amount from the depositor into the pool and allocates the
// matching ticket range.
func (r *Raffle) Deposit(depositor kyber.Point, amount uint64, sig []byte) (ledger.Range, error) {
	if r.phaseNow() != phase.DepositOpen {
		return ledger.Range{}, xerrors.Errorf("deposit: %w", tyche.ErrPhaseViolation)
	}
	if !r.State.Escrowed {
		return ledger.Range{}, xerrors.Errorf("deposit: %w", tyche.ErrNotYetEscrowed)
	}
	if amount == 0 {
		return ledger.Range{}, xerrors.New("deposit: amount must be positive")
	}
	key, err := utils.PointToHex(depositor)
	if err != nil {
		return ledger.Range{}, xerrors.Errorf("deposit: %v", err)
	}
	digest := DepositDigest(r.State.ID, key, amount)
	if err := utils.SchnorrVerify(depositor, digest, sig); err != nil {
		return ledger.Range{}, xerrors.Errorf("deposit: %w", tyche.ErrUnauthorized)
	}
	if err := r.col.Vault.TransferIn(depositor, amount); err != nil {
		return ledger.Range{}, xerrors.Errorf("deposit transfer: %v", err)
	}
	return r.State.Ledger.Allocate(key, amount)
}

// Invest captures the pooled balance and moves it to the yield venue.
// Organizer only, only during interest accrual, exactly once.
func (r *Raffle) Invest(sig []byte) (uint64, error) {
	if r.phaseNow() != phase.InterestAccrual {
		return 0, xerrors.Errorf("invest: %w", tyche.ErrPhaseViolation)
	}
	digest := InvestDigest(r.State.ID)
	if err := utils.SchnorrVerify(r.State.Cfg.Organizer, digest, sig); err != nil {
		return 0, xerrors.Errorf("invest: %w", tyche.ErrUnauthorized)
	}
	balance := r.col.Vault.Balance()
	if err := r.State.Custody.CanInvest(balance); err != nil {
		return 0, err
	}
	if _, err := r.col.Venue.Deposit(balance); err != nil {
		return 0, xerrors.Errorf("venue deposit: %v", err)
	}
	// the capture commits only once the venue holds the funds; a failed
	// deposit leaves the pool intact and the operation retryable
	if err := r.State.Custody.CaptureInvestment(balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// RequestDraw admits a randomness request and pins the beacon round that
// must answer it. A wired source quotes the round itself; without one the
// caller-provided round is pinned. Public, settlement only; re-requests
// are gated by the configured grace window and re-pin a fresh round.
func (r *Raffle) RequestDraw(round uint64) (uint64, error) {
	if r.phaseNow() != phase.Settlement {
		return 0, xerrors.Errorf("request draw: %w", tyche.ErrPhaseViolation)
	}
	total := r.State.Ledger.Total()
	if err := r.State.Draw.CanRequest(r.now(), total, r.retryWindow()); err != nil {
		return 0, err
	}
	if r.col.Source != nil {
		quoted, err := r.col.Source.Request(r.State.Draw.NextRequestID())
		if err != nil {
			// nothing was committed, an immediate retry is allowed
			return 0, xerrors.Errorf("notifying randomness source: %v", err)
		}
		round = quoted
	}
	return r.State.Draw.Request(r.now(), total, r.retryWindow(), round)
}

// Deliver is the incoming half of the oracle boundary. The randomness must
// verify against the configured oracle identity, quote the outstanding
// request and carry the round pinned at request time; duplicates,
// superseded deliveries and historic rounds are rejected.
func (r *Raffle) Deliver(requestID uint64, rnd tyche.Randomness) (uint64, error) {
	if err := rnd.Verify(r.oracleKey); err != nil {
		return 0, xerrors.Errorf("deliver: %w", tyche.ErrUnauthorized)
	}
	raw := draw.RawValue(rnd.Value)
	return r.State.Draw.Resolve(requestID, rnd.Round, raw, r.State.Ledger.Total())
}

// WithdrawVenue burns the venue position and reconciles the returned
// balance into principal and yield, routing any surplus to the organizer.
// Public, settlement only, exactly once.
func (r *Raffle) WithdrawVenue() (int64, error) {
	if r.phaseNow() != phase.Settlement {
		return 0, xerrors.Errorf("venue withdrawal: %w", tyche.ErrPhaseViolation)
	}
	if !r.State.Custody.Invested {
		return 0, xerrors.New("venue withdrawal: pool was never invested")
	}
	if r.State.Custody.VenueWithdrawn {
		return 0, xerrors.Errorf("venue withdrawal: %w", tyche.ErrAlreadyDone)
	}
	returned, err := r.col.Venue.Withdraw()
	if err != nil {
		return 0, xerrors.Errorf("venue withdrawal: %v", err)
	}
	surplus, err := r.State.Custody.ReconcileVenue(returned)
	if err != nil {
		return 0, err
	}
	if surplus > 0 {
		if err := r.col.Vault.TransferOut(r.State.Cfg.Organizer, surplus); err != nil {
			return 0, xerrors.Errorf("yield transfer: %v", err)
		}
	}
	return r.State.Custody.YieldRealized, nil
}

// WithdrawPrincipal pays a depositor back exactly the sum of their ticket
// ranges, once, independently of the draw outcome.
func (r *Raffle) WithdrawPrincipal(depositor kyber.Point, sig []byte) (uint64, error) {
	if r.phaseNow() != phase.Settlement {
		return 0, xerrors.Errorf("withdraw principal: %w", tyche.ErrPhaseViolation)
	}
	key, err := utils.PointToHex(depositor)
	if err != nil {
		return 0, xerrors.Errorf("withdraw principal: %v", err)
	}
	digest := WithdrawDigest(r.State.ID, key)
	if err := utils.SchnorrVerify(depositor, digest, sig); err != nil {
		return 0, xerrors.Errorf("withdraw principal: %w", tyche.ErrUnauthorized)
	}
	principal := r.State.Ledger.PrincipalOf(key)
	if principal == 0 {
		return 0, xerrors.New("withdraw principal: no deposit on record")
	}
	if err := r.State.Custody.CanWithdraw(key); err != nil {
		return 0, err
	}
	if err := r.col.Vault.TransferOut(depositor, principal); err != nil {
		return 0, xerrors.Errorf("principal transfer: %v", err)
	}
	// recorded only once the payout went through, so a failed transfer
	// never burns the depositor's one withdrawal
	if err := r.State.Custody.MarkWithdrawn(key); err != nil {
		return 0, err
	}
	return principal, nil
}

// CoverShortfall pulls the recorded venue deficit from the organizer back
// into the pool, restoring the no-loss guarantee after a venue loss.
func (r *Raffle) CoverShortfall(sig []byte) (uint64, error) {
	if r.phaseNow() != phase.Settlement {
		return 0, xerrors.Errorf("cover shortfall: %w", tyche.ErrPhaseViolation)
	}
	digest := CoverDigest(r.State.ID)
	if err := utils.SchnorrVerify(r.State.Cfg.Organizer, digest, sig); err != nil {
		return 0, xerrors.Errorf("cover shortfall: %w", tyche.ErrUnauthorized)
	}
	deficit := r.State.Custody.Deficit
	if deficit == 0 {
		return 0, xerrors.Errorf("cover shortfall: %w", tyche.ErrAlreadyDone)
	}
	if err := r.col.Vault.TransferIn(r.State.Cfg.Organizer, deficit); err != nil {
		return 0, xerrors.Errorf("shortfall transfer: %v", err)
	}
	if _, err := r.State.Custody.CoverDeficit(); err != nil {
		return 0, err
	}
	return deficit, nil
}

// Claim releases the escrowed collectible to the holder of the winning
// ticket. The escrow's presence is the single-claim guard.
func (r *Raffle) Claim(depositor kyber.Point, sig []byte) (uint64, error) {
	if r.State.Draw.Status != draw.Resolved {
		return 0, xerrors.Errorf("claim: %w", tyche.ErrNotResolved)
	}
	key, err := utils.PointToHex(depositor)
	if err != nil {
		return 0, xerrors.Errorf("claim: %v", err)
	}
	digest := ClaimDigest(r.State.ID, key)
	if err := utils.SchnorrVerify(depositor, digest, sig); err != nil {
		return 0, xerrors.Errorf("claim: %w", tyche.ErrUnauthorized)
	}
	if !r.State.Escrowed {
		return 0, xerrors.Errorf("claim: %w", tyche.ErrAlreadyDone)
	}
	if !r.State.Ledger.HoldsTicket(key, r.State.Draw.Winning) {
		return 0, xerrors.Errorf("claim: %w", tyche.ErrNotAWinner)
	}
	id := r.State.Collectible.ID
	if err := r.col.Registry.TransferOut(depositor, id); err != nil {
		return 0, xerrors.Errorf("claim transfer: %v", err)
	}
	r.State.Escrowed = false
	return id, nil
}

// Status is a read-only snapshot of the raffle.
type Status struct {
	ID             []byte
	Phase          string
	Escrowed       bool
	CollectibleID  uint64
	TotalTickets   uint64
	Depositors     int
	Invested       bool
	VenueWithdrawn bool
	YieldRealized  int64
	Deficit        uint64
	DrawStatus     string
	RequestID      uint64
	Round          uint64
	Winning        uint64
}

func (r *Raffle) Status() Status {
	return Status{
		ID:             r.State.ID,
		Phase:          r.phaseNow().String(),
		Escrowed:       r.State.Escrowed,
		CollectibleID:  r.State.Collectible.ID,
		TotalTickets:   r.State.Ledger.Total(),
		Depositors:     len(r.State.Ledger.Entries),
		Invested:       r.State.Custody.Invested,
		VenueWithdrawn: r.State.Custody.VenueWithdrawn,
		YieldRealized:  r.State.Custody.YieldRealized,
		Deficit:        r.State.Custody.Deficit,
		DrawStatus:     r.State.Draw.Status.String(),
		RequestID:      r.State.Draw.RequestID,
		Round:          r.State.Draw.Round,
		Winning:        r.State.Draw.Winning,
	}
}

// Digests for the signed operations, shared with the client side.

func EscrowDigest(id []byte, collectibleID uint64) []byte {
	return utils.Digest(id, []byte("escrow"), utils.Uint64Buf(collectibleID))
}

func DepositDigest(id []byte, key string, amount uint64) []byte {
	return utils.Digest(id, []byte("deposit"), utils.HashString(key),
		utils.Uint64Buf(amount))
}

func InvestDigest(id []byte) []byte {
	return utils.Digest(id, []byte("invest"))
}

func WithdrawDigest(id []byte, key string) []byte {
	return utils.Digest(id, []byte("withdraw"), utils.HashString(key))
}

func CoverDigest(id []byte) []byte {
	return utils.Digest(id, []byte("cover"))
}

func ClaimDigest(id []byte, key string) []byte {
	return utils.Digest(id, []byte("claim"), utils.HashString(key))
}
