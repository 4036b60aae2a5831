package utils

import (
	"bufio"
	"os"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/app"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func GetServerKey(fname *string) (kyber.Point, error) {
	var keys []kyber.Point
	fh, err := os.Open(*fname)
	if err != nil {
		log.Errorf("GetServerKey error: %v", err)
		return nil, err
	}
	defer fh.Close()

	fs := bufio.NewScanner(fh)
	for fs.Scan() {
		tmp, err := HexToPoint(fs.Text())
		if err != nil {
			log.Errorf("GetServerKey error: %v", err)
			return nil, err
		}
		keys = append(keys, tmp)
	}
	if len(keys) == 0 {
		return nil, xerrors.New("no keys in file")
	}
	return keys[0], nil
}

func ReadRoster(path *string) (*onet.Roster, error) {
	file, err := os.Open(*path)
	if err != nil {
		log.Errorf("ReadRoster error: %v", err)
		return nil, err
	}
	defer file.Close()

	group, err := app.ReadGroupDescToml(file)
	if err != nil {
		log.Errorf("ReadRoster error: %v", err)
		return nil, err
	}

	if len(group.Roster.List) == 0 {
		return nil, xerrors.New("empty roster")
	}
	return group.Roster, nil
}
