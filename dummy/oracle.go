package dummy

import (
	"encoding/binary"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/random"
	"golang.org/x/xerrors"

	"github.com/ceyhunalp/tyche"
)

var suite = pairing.NewSuiteBn256()

// Oracle is a single-key stand-in for the randomness beacon: it signs the
// same chained round messages with a local bn256 key pair, so its output
// verifies exactly like beacon output. Requests are only recorded; the
// test decides when, whether and how often to deliver.
type Oracle struct {
	private kyber.Scalar
	public  kyber.Point
	rounds  [][]byte
	pending []uint64
}

func NewOracle() *Oracle {
	priv, pub := bls.NewKeyPair(suite, random.New())
	return &Oracle{private: priv, public: pub}
}

// Public is the oracle identity a raffle is configured with.
func (o *Oracle) Public() kyber.Point {
	return o.public
}

// Request records an outstanding request and quotes the round the next
// signature will carry. Implements tyche.RandomnessSource.
func (o *Oracle) Request(id uint64) (uint64, error) {
	o.pending = append(o.pending, id)
	return uint64(len(o.rounds)), nil
}

// Pending lists the recorded request identifiers.
func (o *Oracle) Pending() []uint64 {
	return o.pending
}

// Next signs the next chained round and returns it.
func (o *Oracle) Next() (*tyche.Randomness, error) {
	msg := o.nextMsg()
	sig, err := bls.Sign(suite, o.private, msg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't sign round: %v", err)
	}
	o.rounds = append(o.rounds, sig)
	return &tyche.Randomness{
		Round: uint64(len(o.rounds) - 1),
		Prev:  msg,
		Value: sig,
	}, nil
}

// Forge produces a round signed by a fresh unrelated key, for the
// negative-path tests of delivery authentication.
func Forge() (*tyche.Randomness, error) {
	priv, _ := bls.NewKeyPair(suite, random.New())
	msg := []byte(tyche.GenesisSeed)
	sig, err := bls.Sign(suite, priv, msg)
	if err != nil {
		return nil, err
	}
	return &tyche.Randomness{Round: 0, Prev: msg, Value: sig}, nil
}

func (o *Oracle) nextMsg() []byte {
	round := len(o.rounds)
	if round == 0 {
		return []byte(tyche.GenesisSeed)
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(round))
	return append(buf, o.rounds[round-1]...)
}
