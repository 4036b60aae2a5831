package beacon

/*
The beacon service runs a pedersen DKG over its roster and then produces
one chained threshold-BLS signature per round. The collective public key
from the DKG is the oracle identity a raffle is configured with, so every
round it emits verifies as a tyche.Randomness against that key.
*/

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/ceyhunalp/tyche"
	dkgprotocol "go.dedis.ch/cothority/v3/dkg/pedersen"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"go.dedis.ch/kyber/v3/share"
	dkg "go.dedis.ch/kyber/v3/share/dkg/pedersen"
	vss "go.dedis.ch/kyber/v3/share/vss/pedersen"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

var serviceID onet.ServiceID
var suite = bn256.NewSuite()
var vssSuite = suite.G2().(vss.Suite)

const dkgProtoName = "beacon_dkg"
const signProtoName = "beacon_sign"

// ServiceName is the name of the beacon service.
const ServiceName = "BeaconService"

func init() {
	var err error
	serviceID, err = onet.RegisterNewService(ServiceName, newService)
	if err != nil {
		panic(err)
	}
}

// Beacon holds the internal state of the service.
type Beacon struct {
	*onet.ServiceProcessor

	keypair      *key.Pair
	distKeyStore *dkg.DistKeyShare
	pubPoly      *share.PubPoly

	rounds [][]byte
}

// InitDKG runs the DKG protocol over the request's roster and replies with
// the collective public key, marshaled so that it survives transports that
// only know the service's Ed25519 suite.
func (s *Beacon) InitDKG(req *InitDKGRequest) (*InitDKGReply, error) {
	tree := req.Roster.GenerateStar()
	pi, err := s.CreateProtocol(dkgProtoName, tree)
	if err != nil {
		return nil, err
	}
	setup := pi.(*dkgprotocol.Setup)
	setup.Wait = true

	if err := pi.Start(); err != nil {
		return nil, err
	}

	select {
	case <-setup.Finished:
		if err := s.storeShare(setup); err != nil {
			return nil, err
		}
	case <-time.After(5 * time.Second):
		return nil, xerrors.New("dkg did not finish")
	}
	public, err := s.pubPoly.Commit().MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal collective key: %v", err)
	}
	return &InitDKGReply{Public: public}, nil
}

// Randomness runs one signing round and returns the chained round value.
func (s *Beacon) Randomness(req *RandomnessRequest) (*RandomnessReply, error) {
	pi, err := s.CreateProtocol(signProtoName, req.Roster.GenerateStar())
	if err != nil {
		return nil, err
	}
	signPi := pi.(*RoundProtocol)
	msg := roundMsg(s.rounds)
	signPi.Msg = msg
	if err := pi.Start(); err != nil {
		return nil, err
	}

	select {
	case sig := <-signPi.Signature:
		s.rounds = append(s.rounds, sig)
		rnd := tyche.Randomness{
			Round: uint64(len(s.rounds) - 1),
			Prev:  msg,
			Value: sig,
		}
		return &RandomnessReply{Randomness: rnd}, nil
	case <-time.After(2 * time.Second):
		return nil, xerrors.New("timeout waiting for final signature")
	}
}

// NewProtocol is a callback for creating protocols on non-root nodes.
func (s *Beacon) NewProtocol(tn *onet.TreeNodeInstance, conf *onet.GenericConfig) (onet.ProtocolInstance, error) {
	log.Lvl3(s.ServerIdentity(), tn.ProtocolName(), conf)
	switch tn.ProtocolName() {
	case dkgProtoName:
		pi, err := dkgprotocol.CustomSetup(tn, vssSuite, s.keypair)
		if err != nil {
			return nil, err
		}
		setup := pi.(*dkgprotocol.Setup)

		go func() {
			<-setup.Finished
			if err := s.storeShare(setup); err != nil {
				log.Error(s.ServerIdentity(), err)
			}
		}()
		return pi, nil
	case signProtoName:
		pi, err := NewRoundProtocol(tn, s.verify, s.distKeyStore.PriShare(), s.pubPoly, suite)
		if err != nil {
			return nil, err
		}
		signProto := pi.(*RoundProtocol)

		go func() {
			select {
			case sig := <-signProto.Signature:
				s.rounds = append(s.rounds, sig)
			case <-time.After(time.Second):
				log.Error(s.ServerIdentity(), "time out while waiting for signature")
			}
		}()

		return pi, nil
	default:
		return nil, xerrors.New("invalid protocol")
	}
}

func (s *Beacon) storeShare(setup *dkgprotocol.Setup) error {
	_, dks, err := setup.SharedSecret()
	if err != nil {
		return err
	}
	s.distKeyStore = dks
	s.pubPoly = share.NewPubPoly(vssSuite, vssSuite.Point().Base(), dks.Commitments())
	return nil
}

// verify ensures every node only signs the next message of its own chain.
func (s *Beacon) verify(msg []byte) error {
	if !bytes.Equal(msg, roundMsg(s.rounds)) {
		return xerrors.New("bad message")
	}
	return nil
}

func roundMsg(rounds [][]byte) []byte {
	round := len(rounds)
	if round == 0 {
		return []byte(tyche.GenesisSeed)
	}
	rBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(rBuf, uint64(round))
	return append(rBuf, rounds[len(rounds)-1]...)
}

func newService(c *onet.Context) (onet.Service, error) {
	s := &Beacon{
		ServiceProcessor: onet.NewServiceProcessor(c),
		keypair:          key.NewKeyPair(vssSuite),
	}
	if _, err := s.ProtocolRegister(dkgProtoName, func(n *onet.TreeNodeInstance) (onet.ProtocolInstance, error) {
		return dkgprotocol.CustomSetup(n, vssSuite, s.keypair)
	}); err != nil {
		return nil, err
	}
	if _, err := s.ProtocolRegister(signProtoName, func(n *onet.TreeNodeInstance) (onet.ProtocolInstance, error) {
		return NewRoundProtocol(n, s.verify, s.distKeyStore.PriShare(), s.pubPoly, suite)
	}); err != nil {
		return nil, err
	}
	if err := s.RegisterHandlers(s.InitDKG, s.Randomness); err != nil {
		return nil, err
	}
	return s, nil
}
