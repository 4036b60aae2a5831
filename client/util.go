package main

import (
	"bufio"
	"fmt"
	"os"

	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3/util/encoding"
	"go.dedis.ch/kyber/v3/util/key"
	"golang.org/x/xerrors"
)

// Key files hold two hex lines, private scalar then public point.

func writeKeyPair(path string) (*key.Pair, error) {
	kp := key.NewKeyPair(cothority.Suite)
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	priv, err := encoding.ScalarToStringHex(cothority.Suite, kp.Private)
	if err != nil {
		return nil, err
	}
	pub, err := encoding.PointToStringHex(cothority.Suite, kp.Public)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(fh, "%s\n%s\n", priv, pub); err != nil {
		return nil, err
	}
	return kp, nil
}

func readKeyPair(path string) (*key.Pair, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	fs := bufio.NewScanner(fh)
	if !fs.Scan() {
		return nil, xerrors.Errorf("%s: missing private key line", path)
	}
	priv, err := encoding.StringHexToScalar(cothority.Suite, fs.Text())
	if err != nil {
		return nil, xerrors.Errorf("bad private key: %v", err)
	}
	if !fs.Scan() {
		return nil, xerrors.Errorf("%s: missing public key line", path)
	}
	pub, err := encoding.StringHexToPoint(cothority.Suite, fs.Text())
	if err != nil {
		return nil, xerrors.Errorf("bad public key: %v", err)
	}
	return &key.Pair{Public: pub, Private: priv}, nil
}
