package raffle

/*
The service hosts raffle instances keyed by their 32-byte ID, serializes
access to them and persists every mutation. Collaborator units are wired at
InitUnit time: the in-memory vault, registry and venue, plus an optional
beacon roster that plays the randomness oracle. With a beacon wired, a draw
request produces the beacon round synchronously so its number is pinned in
the draw state, then feeds the round back through the same authenticated
delivery path an external oracle would use.
*/

import (
	"encoding/hex"
	"sync"

	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/beacon"
	"github.com/ceyhunalp/tyche/dummy"
)

// ServiceName is the name of the raffle service.
var ServiceName = "RaffleService"

var raffleID onet.ServiceID

func init() {
	var err error
	raffleID, err = onet.RegisterNewService(ServiceName, newService)
	log.ErrFatal(err)
}

// Service hosts raffle instances.
type Service struct {
	*onet.ServiceProcessor
	sync.Mutex

	store   *raffleStore
	raffles map[string]*Raffle

	vault        *dummy.Vault
	registry     *dummy.Registry
	venue        *dummy.Venue
	beaconRoster *onet.Roster
}

// InitUnit wires the collaborator units. Must be called before Setup.
func (s *Service) InitUnit(req *InitUnitRequest) (*InitUnitReply, error) {
	s.Lock()
	defer s.Unlock()
	s.vault = dummy.NewVault()
	s.registry = dummy.NewRegistry()
	s.venue = dummy.NewVenue(s.vault, req.GainNum, req.GainDen)
	s.beaconRoster = req.BeaconRoster
	// restored raffles were created before the units existed
	for _, r := range s.raffles {
		r.Wire(s.collaboratorsFor(r.State.ID))
	}
	return &InitUnitReply{}, nil
}

// Setup creates a raffle instance and persists it.
func (s *Service) Setup(req *SetupRequest) (*SetupReply, error) {
	s.Lock()
	defer s.Unlock()
	if s.vault == nil {
		return nil, xerrors.New("unit is not initialized")
	}
	r, err := New(req.Cfg, Collaborators{}, nil)
	if err != nil {
		log.Errorf("setting up raffle: %v", err)
		return nil, err
	}
	// the source is keyed by the raffle ID, which New just derived
	r.Wire(s.collaboratorsFor(r.State.ID))
	key := hex.EncodeToString(r.State.ID)
	if _, ok := s.raffles[key]; ok {
		return nil, xerrors.Errorf("setup: %w", tyche.ErrAlreadyDone)
	}
	s.raffles[key] = r
	if err := s.store.save(r); err != nil {
		delete(s.raffles, key)
		log.Errorf("persisting raffle: %v", err)
		return nil, err
	}
	return &SetupReply{ID: r.State.ID}, nil
}

// Fund mints value to an account and approves the pool to pull it. An
// operation of the in-memory vault for drivers and tests.
func (s *Service) Fund(req *FundRequest) (*FundReply, error) {
	s.Lock()
	defer s.Unlock()
	if s.vault == nil {
		return nil, xerrors.New("unit is not initialized")
	}
	if err := s.vault.Mint(req.Owner, req.Amount); err != nil {
		return nil, err
	}
	if err := s.vault.Approve(req.Owner, req.Amount); err != nil {
		return nil, err
	}
	return &FundReply{}, nil
}

// MintCollectible registers a collectible in the in-memory registry.
func (s *Service) MintCollectible(req *MintCollectibleRequest) (*MintCollectibleReply, error) {
	s.Lock()
	defer s.Unlock()
	if s.registry == nil {
		return nil, xerrors.New("unit is not initialized")
	}
	if err := s.registry.Mint(req.Owner, req.CollectibleID); err != nil {
		return nil, err
	}
	return &MintCollectibleReply{}, nil
}

func (s *Service) Escrow(req *EscrowRequest) (*EscrowReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	if err := r.Escrow(req.CollectibleID, req.Sig); err != nil {
		log.Errorf("escrow: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &EscrowReply{}, nil
}

func (s *Service) Deposit(req *DepositRequest) (*DepositReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	rng, err := r.Deposit(req.Depositor, req.Amount, req.Sig)
	if err != nil {
		log.Errorf("deposit: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &DepositReply{Range: rng}, nil
}

func (s *Service) Invest(req *InvestRequest) (*InvestReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	principal, err := r.Invest(req.Sig)
	if err != nil {
		log.Errorf("invest: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &InvestReply{Principal: principal}, nil
}

func (s *Service) RequestDraw(req *RequestDrawRequest) (*RequestDrawReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	id, err := r.RequestDraw(req.Round)
	if err != nil {
		log.Errorf("request draw: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &RequestDrawReply{RequestID: id}, nil
}

// beaconSource plays the raffle's randomness source on top of the beacon
// service. Request produces the round synchronously, so its number is
// pinned in the draw state before the delivery goroutine can take the
// service lock.
type beaconSource struct {
	service  *Service
	raffleID []byte
}

func (b *beaconSource) Request(requestID uint64) (uint64, error) {
	rnd, err := beacon.NewClient(b.service.beaconRoster).Randomness()
	if err != nil {
		return 0, xerrors.Errorf("fetching beacon round: %v", err)
	}
	go b.service.deliverRound(b.raffleID, requestID, rnd)
	return rnd.Round, nil
}

// deliverRound feeds a produced beacon round back through the
// authenticated delivery path. It blocks on the service lock until the
// requesting handler has committed the pinned round.
func (s *Service) deliverRound(id []byte, requestID uint64, rnd *tyche.Randomness) {
	_, err := s.Deliver(&DeliverRequest{
		ID:         id,
		RequestID:  requestID,
		Randomness: *rnd,
	})
	if err != nil {
		log.Errorf("delivering beacon round: %v", err)
	}
}

func (s *Service) Deliver(req *DeliverRequest) (*DeliverReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	winning, err := r.Deliver(req.RequestID, req.Randomness)
	if err != nil {
		log.Errorf("deliver: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &DeliverReply{Winning: winning}, nil
}

func (s *Service) WithdrawVenue(req *WithdrawVenueRequest) (*WithdrawVenueReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	yield, err := r.WithdrawVenue()
	if err != nil {
		log.Errorf("venue withdrawal: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &WithdrawVenueReply{Yield: yield}, nil
}

func (s *Service) WithdrawPrincipal(req *WithdrawPrincipalRequest) (*WithdrawPrincipalReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	amount, err := r.WithdrawPrincipal(req.Depositor, req.Sig)
	if err != nil {
		log.Errorf("withdraw principal: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &WithdrawPrincipalReply{Amount: amount}, nil
}

func (s *Service) CoverShortfall(req *CoverShortfallRequest) (*CoverShortfallReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	amount, err := r.CoverShortfall(req.Sig)
	if err != nil {
		log.Errorf("cover shortfall: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &CoverShortfallReply{Amount: amount}, nil
}

func (s *Service) Claim(req *ClaimRequest) (*ClaimReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	id, err := r.Claim(req.Depositor, req.Sig)
	if err != nil {
		log.Errorf("claim: %v", err)
		return nil, err
	}
	if err := s.store.save(r); err != nil {
		return nil, err
	}
	return &ClaimReply{CollectibleID: id}, nil
}

func (s *Service) Status(req *StatusRequest) (*StatusReply, error) {
	s.Lock()
	defer s.Unlock()
	r, err := s.get(req.ID)
	if err != nil {
		return nil, err
	}
	return &StatusReply{Status: r.Status()}, nil
}

func (s *Service) get(id []byte) (*Raffle, error) {
	r, ok := s.raffles[hex.EncodeToString(id)]
	if !ok {
		return nil, xerrors.Errorf("no raffle with ID %x", id)
	}
	return r, nil
}

func (s *Service) collaboratorsFor(id []byte) Collaborators {
	col := Collaborators{
		Vault:    s.vault,
		Registry: s.registry,
		Venue:    s.venue,
	}
	if s.beaconRoster != nil {
		col.Source = &beaconSource{service: s, raffleID: id}
	}
	return col
}

// tryLoad restores persisted raffle instances. Collaborator state is not
// persisted; a restarted node needs InitUnit again before the restored
// raffles can execute transfers.
func (s *Service) tryLoad() error {
	states, err := s.store.loadAll()
	if err != nil {
		return err
	}
	for _, st := range states {
		r, err := Restore(st, s.collaboratorsFor(st.ID), nil)
		if err != nil {
			return xerrors.Errorf("restoring raffle %x: %v", st.ID, err)
		}
		s.raffles[hex.EncodeToString(st.ID)] = r
	}
	return nil
}

func newService(c *onet.Context) (onet.Service, error) {
	s := &Service{
		ServiceProcessor: onet.NewServiceProcessor(c),
		raffles:          make(map[string]*Raffle),
	}
	var err error
	s.store, err = newRaffleStore(c)
	if err != nil {
		return nil, err
	}
	if err := s.tryLoad(); err != nil {
		return nil, err
	}
	err = s.RegisterHandlers(s.InitUnit, s.Setup, s.Fund, s.MintCollectible,
		s.Escrow, s.Deposit, s.Invest, s.RequestDraw, s.Deliver,
		s.WithdrawVenue, s.WithdrawPrincipal, s.CoverShortfall, s.Claim,
		s.Status)
	if err != nil {
		return nil, xerrors.Errorf("couldn't register handlers: %v", err)
	}
	return s, nil
}
