package domain

// ProtocolState is the singleton protocol account: authority, pause flag, and
// running totals mutated by staking, settlement, and slashing.
type ProtocolState struct {
	Authority          string
	Treasury           string
	Paused             bool
	TotalStaked        uint64
	TotalVeSupply      uint64
	RewardPool         uint64 // staker share of settlement fees
	InsuranceFund      uint64 // slashed oracle bonds
	TreasuryOwed       uint64
	TotalFeesCollected uint64
	TotalBurned        uint64
}
