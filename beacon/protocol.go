package beacon

import (
	"time"

	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/kyber/v3/sign/tbls"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// syncTimeout bounds how long the root waits for the rest of the roster
// to confirm a round before giving up on it.
const syncTimeout = time.Second

// Announce opens a round and carries the message to sign.
type Announce struct {
	Msg []byte
}

// SigShare carries one node's threshold signature share.
type SigShare struct {
	Share []byte
}

// RoundDone tells the root that a node recovered the round signature.
type RoundDone struct{}

type announceMsg struct {
	*onet.TreeNode
	Announce
}
type shareMsg struct {
	*onet.TreeNode
	SigShare
}
type doneMsg struct {
	*onet.TreeNode
	RoundDone
}

// RoundProtocol produces one collective threshold BLS signature. Every
// node signs the announced message with its DKG share, recovers the
// collective signature from the roster's shares and appends it to its own
// chain. The root releases the signature only after the whole roster
// confirmed the round, so no node can be announced round r+1 while still
// at round r.
type RoundProtocol struct {
	*onet.TreeNodeInstance

	// Msg is the round message, set by the root before Start.
	Msg []byte
	// Signature delivers the recovered collective signature, once.
	Signature chan []byte

	acceptMsg func([]byte) error
	priShare  *share.PriShare
	pubPoly   *share.PubPoly
	suite     pairing.Suite

	announceCh chan announceMsg
	shareCh    chan shareMsg
	doneCh     chan doneMsg
}

// NewRoundProtocol wires one signing round over the tree. accept is called
// with the announced message before the node contributes its share.
func NewRoundProtocol(n *onet.TreeNodeInstance, accept func([]byte) error,
	priShare *share.PriShare, pubPoly *share.PubPoly,
	suite pairing.Suite) (onet.ProtocolInstance, error) {
	p := &RoundProtocol{
		TreeNodeInstance: n,
		Signature:        make(chan []byte, 1),
		acceptMsg:        accept,
		priShare:         priShare,
		pubPoly:          pubPoly,
		suite:            suite,
	}
	if err := p.RegisterChannels(&p.announceCh, &p.shareCh, &p.doneCh); err != nil {
		return nil, err
	}
	return p, nil
}

// Start implements the onet.ProtocolInstance interface.
func (p *RoundProtocol) Start() error {
	if len(p.Msg) == 0 {
		return xerrors.New("no round message to sign")
	}
	log.Lvl3(p.ServerIdentity(), "announcing round")
	return p.broadcast(&Announce{p.Msg})
}

// Dispatch implements the onet.ProtocolInstance interface.
func (p *RoundProtocol) Dispatch() error {
	defer p.Done()
	ann := <-p.announceCh
	if err := p.acceptMsg(ann.Msg); err != nil {
		return err
	}
	sig, err := p.signRound(ann.Msg)
	if err != nil {
		return err
	}
	if !p.IsRoot() {
		p.Signature <- sig
		return p.SendTo(p.Root(), &RoundDone{})
	}
	// the root holds the signature back until the roster caught up
	for i := 0; i < len(p.List())-1; i++ {
		select {
		case <-p.doneCh:
		case <-time.After(syncTimeout):
			return xerrors.New("round confirmation timed out")
		}
	}
	p.Signature <- sig
	return nil
}

// signRound contributes this node's share and recovers the collective
// signature from the roster's shares.
func (p *RoundProtocol) signRound(msg []byte) ([]byte, error) {
	own, err := tbls.Sign(p.suite, p.priShare, msg)
	if err != nil {
		return nil, err
	}
	if err := p.broadcast(&SigShare{own}); err != nil {
		return nil, err
	}
	log.Lvl3(p.ServerIdentity(), "collecting shares")
	n := len(p.List())
	shares := make([][]byte, n)
	for i := 0; i < n; i++ {
		sm := <-p.shareCh
		shares[i] = sm.Share
	}
	return tbls.Recover(p.suite, p.pubPoly, msg, shares, p.threshold(), n)
}

// threshold is the share count needed for recovery, tolerating up to a
// third of the roster failing.
func (p *RoundProtocol) threshold() int {
	n := len(p.List())
	return n - (n-1)/3
}

// broadcast sends msg to every node in the tree, this one included.
func (p *RoundProtocol) broadcast(msg interface{}) error {
	errs := make(chan error, len(p.List()))
	for _, node := range p.List() {
		go func(tn *onet.TreeNode) {
			errs <- p.SendTo(tn, msg)
		}(node)
	}
	for range p.List() {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}
