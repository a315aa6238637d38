package handler

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/service"
)

type marketView struct {
	ID                 string     `json:"id"`
	ProtocolID         string     `json:"protocol_id"`
	Metric             string     `json:"metric"`
	Comparator         string     `json:"comparator"`
	TargetValue        uint64     `json:"target_value"`
	ResolutionDeadline time.Time  `json:"resolution_deadline"`
	Description        string     `json:"description,omitempty"`
	Creator            string     `json:"creator"`
	YesTotal           uint64     `json:"yes_total"`
	NoTotal            uint64     `json:"no_total"`
	State              string     `json:"state,omitempty"`
	Cancelled          bool       `json:"cancelled"`
	Outcome            *bool      `json:"outcome,omitempty"`
	RevealedValue      *uint64    `json:"revealed_value,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	DisputeDeadline    *time.Time `json:"dispute_deadline,omitempty"`
	CreatorFeesAccrued uint64     `json:"creator_fees_accrued"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toMarketView(m domain.Market) marketView {
	return marketView{
		ID:                 m.ID,
		ProtocolID:         m.ProtocolID,
		Metric:             string(m.Metric),
		Comparator:         string(m.Comparator),
		TargetValue:        m.TargetValue,
		ResolutionDeadline: m.ResolutionDeadline,
		Description:        m.Description,
		Creator:            m.Creator,
		YesTotal:           m.YesTotal,
		NoTotal:            m.NoTotal,
		Cancelled:          m.Cancelled,
		Outcome:            m.Outcome,
		RevealedValue:      m.RevealedValue,
		ResolvedAt:         m.ResolvedAt,
		CreatorFeesAccrued: m.CreatorFeesAccrued,
		CreatedAt:          m.CreatedAt,
	}
}

func toMarketStateView(v service.MarketView) marketView {
	out := toMarketView(v.Market)
	out.State = string(v.State)
	if v.Resolution != nil && v.Resolution.Revealed {
		dd := v.Resolution.DisputeDeadline
		out.DisputeDeadline = &dd
	}
	return out
}

type commitmentView struct {
	MarketID    string    `json:"market_id"`
	Digest      string    `json:"digest"`
	CommittedAt time.Time `json:"committed_at"`
	Revealed    bool      `json:"revealed"`
}

type betCommitmentView struct {
	commitmentView
	Bettor string `json:"bettor"`
	Nonce  uint64 `json:"nonce"`
}

func toBetCommitmentView(c domain.BetCommitment) betCommitmentView {
	return betCommitmentView{
		commitmentView: commitmentView{
			MarketID:    c.MarketID,
			Digest:      hexutil.Encode(c.Digest[:]),
			CommittedAt: c.CommittedAt,
			Revealed:    c.Revealed,
		},
		Bettor: c.Bettor,
		Nonce:  c.Nonce,
	}
}

type resolutionCommitmentView struct {
	commitmentView
	Oracle          string     `json:"oracle"`
	Value           *uint64    `json:"value,omitempty"`
	DisputeDeadline *time.Time `json:"dispute_deadline,omitempty"`
}

func toResolutionCommitmentView(c domain.ResolutionCommitment) resolutionCommitmentView {
	v := resolutionCommitmentView{
		commitmentView: commitmentView{
			MarketID:    c.MarketID,
			Digest:      hexutil.Encode(c.Digest[:]),
			CommittedAt: c.CommittedAt,
			Revealed:    c.Revealed,
		},
		Oracle: c.Oracle,
	}
	if c.Revealed {
		val, dd := c.Value, c.DisputeDeadline
		v.Value = &val
		v.DisputeDeadline = &dd
	}
	return v
}

type betView struct {
	MarketID        string     `json:"market_id"`
	Bettor          string     `json:"bettor"`
	Nonce           uint64     `json:"nonce"`
	Amount          uint64     `json:"amount"`
	Side            string     `json:"side"`
	EffectiveAmount uint64     `json:"effective_amount"`
	PlacedAt        time.Time  `json:"placed_at"`
	Claimed         bool       `json:"claimed"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
	Result          string     `json:"result,omitempty"`
	Payout          uint64     `json:"payout"`
	Fee             uint64     `json:"fee"`
}

func toBetView(b domain.Bet) betView {
	return betView{
		MarketID:        b.MarketID,
		Bettor:          b.Bettor,
		Nonce:           b.Nonce,
		Amount:          b.Amount,
		Side:            string(b.Side),
		EffectiveAmount: b.EffectiveAmount,
		PlacedAt:        b.PlacedAt,
		Claimed:         b.Claimed,
		ClaimedAt:       b.ClaimedAt,
		Result:          string(b.Result),
		Payout:          b.Payout,
		Fee:             b.Fee,
	}
}

type settlementView struct {
	Kind       string `json:"kind"`
	Payout     uint64 `json:"payout"`
	GrossShare uint64 `json:"gross_share"`
	Fee        uint64 `json:"fee"`
	Stakers    uint64 `json:"fee_stakers"`
	Creator    uint64 `json:"fee_creator"`
	Treasury   uint64 `json:"fee_treasury"`
	Burn       uint64 `json:"fee_burn"`
}

func toSettlementView(s domain.Settlement) settlementView {
	return settlementView{
		Kind:       string(s.Kind),
		Payout:     s.Payout,
		GrossShare: s.GrossShare,
		Fee:        s.Fee,
		Stakers:    s.Split.Stakers,
		Creator:    s.Split.Creator,
		Treasury:   s.Split.Treasury,
		Burn:       s.Split.Burn,
	}
}

type bondView struct {
	Oracle        string    `json:"oracle"`
	LockedAmount  uint64    `json:"locked_amount"`
	Slashed       bool      `json:"slashed"`
	SlashedAmount uint64    `json:"slashed_amount"`
	DepositedAt   time.Time `json:"deposited_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toBondView(b domain.OracleBond) bondView {
	return bondView{
		Oracle:        b.Oracle,
		LockedAmount:  b.LockedAmount,
		Slashed:       b.Slashed,
		SlashedAmount: b.SlashedAmount,
		DepositedAt:   b.DepositedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type stakerView struct {
	Owner        string        `json:"owner"`
	StakedAmount uint64        `json:"staked_amount"`
	TradedVolume uint64        `json:"traded_volume"`
	LastStakeAt  time.Time     `json:"last_stake_at"`
	VePosition   *veView       `json:"ve_position,omitempty"`
	Badge        *badgeView    `json:"badge,omitempty"`
	BonusBps     uint64        `json:"bonus_bps"`
}

type veView struct {
	LockedStake uint64    `json:"locked_stake"`
	VeAmount    uint64    `json:"ve_amount"`
	LockStart   time.Time `json:"lock_start"`
	LockEnd     time.Time `json:"lock_end"`
}

type badgeView struct {
	Tier     string    `json:"tier"`
	Volume   uint64    `json:"volume"`
	VeAmount uint64    `json:"ve_amount"`
	IssuedAt time.Time `json:"issued_at"`
}

type protocolView struct {
	Authority          string `json:"authority"`
	Treasury           string `json:"treasury"`
	Paused             bool   `json:"paused"`
	TotalStaked        uint64 `json:"total_staked"`
	TotalVeSupply      uint64 `json:"total_ve_supply"`
	RewardPool         uint64 `json:"reward_pool"`
	InsuranceFund      uint64 `json:"insurance_fund"`
	TreasuryOwed       uint64 `json:"treasury_owed"`
	TotalFeesCollected uint64 `json:"total_fees_collected"`
	TotalBurned        uint64 `json:"total_burned"`
}

func toProtocolView(p domain.ProtocolState) protocolView {
	return protocolView{
		Authority:          p.Authority,
		Treasury:           p.Treasury,
		Paused:             p.Paused,
		TotalStaked:        p.TotalStaked,
		TotalVeSupply:      p.TotalVeSupply,
		RewardPool:         p.RewardPool,
		InsuranceFund:      p.InsuranceFund,
		TreasuryOwed:       p.TreasuryOwed,
		TotalFeesCollected: p.TotalFeesCollected,
		TotalBurned:        p.TotalBurned,
	}
}
