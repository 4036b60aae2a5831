package sys

import (
	"time"

	"github.com/BurntSushi/toml"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"

	"github.com/ceyhunalp/tyche/utils"
)

// LoadConfig reads and validates a deployment descriptor.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		log.Errorf("Cannot decode config file %s: %v", path, err)
		return nil, err
	}
	if _, _, _, err := cfg.Windows(); err != nil {
		return nil, err
	}
	if cfg.GainDen == 0 {
		return nil, xerrors.New("venue gain denominator cannot be zero")
	}
	return &cfg, nil
}

// Windows parses the three configured durations.
func (c *Config) Windows() (deposit, accrual, retry time.Duration, err error) {
	if deposit, err = time.ParseDuration(c.DepositWindow); err != nil {
		return 0, 0, 0, xerrors.Errorf("bad deposit window: %v", err)
	}
	if accrual, err = time.ParseDuration(c.AccrualWindow); err != nil {
		return 0, 0, 0, xerrors.Errorf("bad accrual window: %v", err)
	}
	if retry, err = time.ParseDuration(c.RetryWindow); err != nil {
		return 0, 0, 0, xerrors.Errorf("bad retry window: %v", err)
	}
	if deposit <= 0 || accrual <= 0 || retry <= 0 {
		return 0, 0, 0, xerrors.New("windows must be positive")
	}
	return deposit, accrual, retry, nil
}

// Boundaries anchors the configured windows at the given start time and
// returns the unix timestamps of the two phase boundaries.
func (c *Config) Boundaries(start time.Time) (depositClose, raffleEnd int64, err error) {
	deposit, accrual, _, err := c.Windows()
	if err != nil {
		return 0, 0, err
	}
	closeAt := start.Add(deposit)
	return closeAt.Unix(), closeAt.Add(accrual).Unix(), nil
}

// ReadRoster loads the roster the descriptor points at.
func (c *Config) ReadRoster() (*onet.Roster, error) {
	return utils.ReadRoster(&c.Roster)
}
