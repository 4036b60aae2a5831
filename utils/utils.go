package utils

import (
	"crypto/sha256"
	"encoding/binary"

	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/util/encoding"
	"golang.org/x/xerrors"
)

var ps = pairing.NewSuiteBn256()

func HashString(val string) []byte {
	h := sha256.New()
	h.Write([]byte(val))
	return h.Sum(nil)
}

func HashPoint(p kyber.Point) ([]byte, error) {
	buf, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(buf)
	return h.Sum(nil), nil
}

func HashUint64(val uint64) []byte {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	h.Write(buf)
	return h.Sum(nil)
}

// PointToHex encodes an Ed25519 point into its canonical hex string form,
// used as the map key for depositor entries.
func PointToHex(p kyber.Point) (string, error) {
	return encoding.PointToStringHex(cothority.Suite, p)
}

func HexToPoint(s string) (kyber.Point, error) {
	return encoding.StringHexToPoint(cothority.Suite, s)
}

// UnmarshalRandPoint decodes a marshaled bn256 G2 point, the form in which
// the beacon's collective key travels over the wire.
func UnmarshalRandPoint(buf []byte) (kyber.Point, error) {
	p := ps.G2().Point()
	if err := p.UnmarshalBinary(buf); err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal point: %v", err)
	}
	return p, nil
}

// SchnorrSign signs a digest with the caller's Ed25519 private key. The
// same digest construction is used by the service to authorize the request.
func SchnorrSign(priv kyber.Scalar, digest []byte) ([]byte, error) {
	return schnorr.Sign(cothority.Suite, priv, digest)
}

func SchnorrVerify(pub kyber.Point, digest []byte, sig []byte) error {
	return schnorr.Verify(cothority.Suite, pub, digest, sig)
}

// Digest hashes the concatenation of the given parts. Every signed raffle
// operation commits to the raffle ID, an operation tag and its arguments
// through this digest.
func Digest(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Uint64Buf is the little-endian wire form of a counter or amount inside a
// signed digest.
func Uint64Buf(val uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	return buf
}
