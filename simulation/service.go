package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/simul/monitor"

	"github.com/ceyhunalp/tyche/beacon"
	"github.com/ceyhunalp/tyche/ledger"
	"github.com/ceyhunalp/tyche/raffle"
)

type SimulationService struct {
	onet.SimulationBFTree
	NumDepositors int
	DepositAmount uint64
	GainNum       uint64
	GainDen       uint64
	DepositWindow int
	AccrualWindow int
	RetryWindow   int64
	CollectibleID uint64

	// internal structs
	cl         *raffle.Client
	raffleID   []byte
	organizer  *key.Pair
	depositors []*key.Pair
	ranges     []ledger.Range
}

func init() {
	onet.SimulationRegister("TycheRaffle", NewRaffleSimulation)
}

func NewRaffleSimulation(config string) (onet.Simulation, error) {
	ss := &SimulationService{}
	_, err := toml.Decode(config, ss)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (s *SimulationService) Setup(dir string,
	hosts []string) (*onet.SimulationConfig, error) {
	sc := &onet.SimulationConfig{}
	s.CreateRoster(sc, hosts, 2000)
	err := s.CreateTree(sc)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *SimulationService) Node(config *onet.SimulationConfig) error {
	index, _ := config.Roster.Search(config.Server.ServerIdentity.GetID())
	if index < 0 {
		log.Fatal("Didn't find this node in roster")
	}
	log.Lvl3("Initializing node-index", index)
	return s.SimulationBFTree.Node(config)
}

func (s *SimulationService) initRaffle(roster *onet.Roster) error {
	err := s.cl.InitUnit(s.GainNum, s.GainDen, roster)
	if err != nil {
		log.Errorf("initializing unit: %v", err)
		return err
	}
	dkgMonitor := monitor.NewTimeMeasure("dkg")
	public, err := beacon.NewClient(roster).InitDKG()
	if err != nil {
		log.Errorf("initializing DKG: %v", err)
		return err
	}
	dkgMonitor.Record()
	oraclePublic, err := public.MarshalBinary()
	if err != nil {
		return err
	}

	s.organizer = key.NewKeyPair(cothority.Suite)
	for i := 0; i < s.NumDepositors; i++ {
		kp := key.NewKeyPair(cothority.Suite)
		s.depositors = append(s.depositors, kp)
		if err := s.cl.Fund(kp.Public, s.DepositAmount); err != nil {
			log.Errorf("funding depositor %d: %v", i, err)
			return err
		}
	}
	err = s.cl.MintCollectible(s.organizer.Public, s.CollectibleID)
	if err != nil {
		log.Errorf("minting collectible: %v", err)
		return err
	}

	start := time.Now()
	s.raffleID, err = s.cl.Setup(raffle.Config{
		Organizer:    s.organizer.Public,
		Asset:        "simcoin",
		DepositClose: start.Add(time.Duration(s.DepositWindow) * time.Second).Unix(),
		RaffleEnd: start.Add(time.Duration(s.DepositWindow+s.AccrualWindow) *
			time.Second).Unix(),
		RetryWindow:  s.RetryWindow,
		OraclePublic: oraclePublic,
		Venue:        "simvenue",
		Nonce:        []byte("simulation"),
	})
	if err != nil {
		log.Errorf("setting up raffle: %v", err)
		return err
	}
	return s.cl.Escrow(s.raffleID, s.CollectibleID, s.organizer.Private)
}

func (s *SimulationService) executeDeposits() error {
	s.ranges = make([]ledger.Range, s.NumDepositors)
	var wg sync.WaitGroup
	errs := make([]error, s.NumDepositors)
	wg.Add(s.NumDepositors)
	for i := 0; i < s.NumDepositors; i++ {
		go func(idx int) {
			defer wg.Done()
			label := fmt.Sprintf("p%d_deposit", idx)
			depositMonitor := monitor.NewTimeMeasure(label)
			kp := s.depositors[idx]
			rng, err := s.cl.Deposit(s.raffleID, kp.Public, kp.Private,
				s.DepositAmount)
			if err != nil {
				log.Errorf("deposit %d: %v", idx, err)
				errs[idx] = err
				return
			}
			s.ranges[idx] = rng
			depositMonitor.Record()
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SimulationService) executeDraw() (uint64, error) {
	drawMonitor := monitor.NewTimeMeasure("draw")
	reqID, err := s.cl.RequestDraw(s.raffleID, 0)
	if err != nil {
		log.Errorf("requesting draw: %v", err)
		return 0, err
	}
	log.Lvl2("draw request", reqID, "submitted")
	for {
		st, err := s.cl.Status(s.raffleID)
		if err != nil {
			return 0, err
		}
		if st.DrawStatus == "resolved" {
			drawMonitor.Record()
			return st.Winning, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func (s *SimulationService) executeSettlement(winning uint64) error {
	settleMonitor := monitor.NewTimeMeasure("settlement")
	yield, err := s.cl.WithdrawVenue(s.raffleID)
	if err != nil {
		log.Errorf("withdrawing from venue: %v", err)
		return err
	}
	log.Lvl2("realized yield:", yield)
	winner := -1
	for i, kp := range s.depositors {
		if s.ranges[i].Holds(winning) {
			winner = i
		}
		_, err := s.cl.WithdrawPrincipal(s.raffleID, kp.Public, kp.Private)
		if err != nil {
			log.Errorf("principal withdrawal %d: %v", i, err)
			return err
		}
	}
	if winner < 0 {
		log.Fatal("winning ticket maps to no depositor")
	}
	collectibleID, err := s.cl.Claim(s.raffleID, s.depositors[winner].Public,
		s.depositors[winner].Private)
	if err != nil {
		log.Errorf("claiming collectible: %v", err)
		return err
	}
	settleMonitor.Record()
	log.Lvl1("depositor", winner, "claimed collectible", collectibleID)
	return nil
}

func (s *SimulationService) runRaffle() error {
	err := s.executeDeposits()
	if err != nil {
		return err
	}
	time.Sleep(time.Duration(s.DepositWindow) * time.Second)
	investMonitor := monitor.NewTimeMeasure("invest")
	_, err = s.cl.Invest(s.raffleID, s.organizer.Private)
	if err != nil {
		log.Errorf("investing pool: %v", err)
		return err
	}
	investMonitor.Record()
	time.Sleep(time.Duration(s.AccrualWindow) * time.Second)
	winning, err := s.executeDraw()
	if err != nil {
		return err
	}
	return s.executeSettlement(winning)
}

func (s *SimulationService) Run(config *onet.SimulationConfig) error {
	s.cl = raffle.NewClient(config.Roster)
	err := s.initRaffle(config.Roster)
	if err != nil {
		return err
	}
	return s.runRaffle()
}
