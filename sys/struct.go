package sys

// Config is the deployment descriptor of a raffle, read from a TOML file.
// Window fields are Go duration strings; boundaries are derived from the
// deployment time, so the same file can be reused across runs.
type Config struct {
	Roster        string
	Asset         string
	Venue         string
	DepositWindow string
	AccrualWindow string
	RetryWindow   string
	GainNum       uint64
	GainDen       uint64
	CollectibleID uint64
	Nonce         string
	Funding       []FundingEntry
}

// FundingEntry seeds a depositor account in the vault. The account is the
// hex encoding of an Ed25519 public key.
type FundingEntry struct {
	Account string
	Amount  uint64
}
