package simulations

import (
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

var ErrNotDistributor = errors.New("caller is not the rewards distributor")

// rewardPrecision scales rewardPerToken so per-second accrual survives integer division.
var rewardPrecision = math.NewIntWithDecimal(1, 18)

type stakingState struct {
	rewardRate           math.Int
	periodFinish         time.Time
	lastUpdate           time.Time
	rewardPerTokenStored math.Int
	userRewardPerToken   map[chain.Address]math.Int
	rewards              map[chain.Address]math.Int
}

// StakingRewards streams a reward token to stakers pro rata over fixed-length periods.
// Stakers receive a position token 1:1 for what they stake.
type StakingRewards struct {
	logger      zerolog.Logger
	address     chain.Address
	ledger      *chain.Ledger
	clock       *chain.Clock
	stake       types.Asset
	position    types.Asset
	reward      types.Asset
	distributor chain.Address
	duration    time.Duration

	state stakingState
}

func NewStakingRewards(address chain.Address, c *chain.Chain, stake, position, reward types.Asset, distributor chain.Address, duration time.Duration) (*StakingRewards, error) {
	if duration < time.Second {
		return nil, fmt.Errorf("reward duration must be at least one second")
	}
	if distributor == "" {
		return nil, fmt.Errorf("rewards distributor is required")
	}
	now := c.Now()
	return &StakingRewards{
		logger:      logger.GetForComponent("simulation").With().Str("venue", "staking").Logger(),
		address:     address,
		ledger:      c.Ledger(),
		clock:       c.Clock(),
		stake:       stake,
		position:    position,
		reward:      reward,
		distributor: distributor,
		duration:    duration,
		state: stakingState{
			rewardRate:           math.ZeroInt(),
			periodFinish:         now,
			lastUpdate:           now,
			rewardPerTokenStored: math.ZeroInt(),
			userRewardPerToken:   make(map[chain.Address]math.Int),
			rewards:              make(map[chain.Address]math.Int),
		},
	}, nil
}

func (r *StakingRewards) Address() chain.Address { return r.address }
func (r *StakingRewards) StakeToken() string { return r.stake.Denom }
func (r *StakingRewards) PositionToken() string { return r.position.Denom }
func (r *StakingRewards) RewardToken() string { return r.reward.Denom }
func (r *StakingRewards) PeriodFinish() time.Time { return r.state.periodFinish }
func (r *StakingRewards) RewardRate() math.Int { return r.state.rewardRate }
func (r *StakingRewards) Duration() time.Duration { return r.duration }

// Snapshot implements chain.Stateful.
func (r *StakingRewards) Snapshot() any {
	snap := r.state
	snap.userRewardPerToken = make(map[chain.Address]math.Int, len(r.state.userRewardPerToken))
	for addr, v := range r.state.userRewardPerToken {
		snap.userRewardPerToken[addr] = v
	}
	snap.rewards = make(map[chain.Address]math.Int, len(r.state.rewards))
	for addr, v := range r.state.rewards {
		snap.rewards[addr] = v
	}
	return snap
}

// Restore implements chain.Stateful.
func (r *StakingRewards) Restore(snapshot any) { r.state = snapshot.(stakingState) }

// StakedBalance is the position token balance of owner.
func (r *StakingRewards) StakedBalance(owner chain.Address) math.Int {
	return r.ledger.BalanceOf(owner, r.position.Denom)
}

// TotalStaked is the position token supply.
func (r *StakingRewards) TotalStaked() math.Int {
	return r.ledger.Supply(r.position.Denom)
}

func (r *StakingRewards) lastTimeRewardApplicable(now time.Time) time.Time {
	if now.Before(r.state.periodFinish) {
		return now
	}
	return r.state.periodFinish
}

func (r *StakingRewards) rewardPerToken(now time.Time) math.Int {
	total := r.TotalStaked()
	if total.IsZero() {
		return r.state.rewardPerTokenStored
	}
	elapsed := r.lastTimeRewardApplicable(now).Sub(r.state.lastUpdate)
	if elapsed <= 0 {
		return r.state.rewardPerTokenStored
	}
	seconds := math.NewInt(int64(elapsed / time.Second))
	accrued := seconds.Mul(r.state.rewardRate).Mul(rewardPrecision).Quo(total)
	return r.state.rewardPerTokenStored.Add(accrued)
}

func (r *StakingRewards) earned(owner chain.Address, now time.Time) math.Int {
	paid, ok := r.state.userRewardPerToken[owner]
	if !ok {
		paid = math.ZeroInt()
	}
	owed, ok := r.state.rewards[owner]
	if !ok {
		owed = math.ZeroInt()
	}
	delta := r.rewardPerToken(now).Sub(paid)
	return r.StakedBalance(owner).Mul(delta).Quo(rewardPrecision).Add(owed)
}

// UnclaimedRewards is what owner could claim right now.
func (r *StakingRewards) UnclaimedRewards(owner chain.Address) math.Int {
	return r.earned(owner, r.clock.Now())
}

func (r *StakingRewards) updateReward(owner chain.Address) {
	now := r.clock.Now()
	r.state.rewardPerTokenStored = r.rewardPerToken(now)
	r.state.lastUpdate = r.lastTimeRewardApplicable(now)
	if owner != "" {
		r.state.rewards[owner] = r.earned(owner, now)
		r.state.userRewardPerToken[owner] = r.state.rewardPerTokenStored
	}
}

func (r *StakingRewards) Stake(owner chain.Address, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("stake amount must be positive")
	}
	r.updateReward(owner)
	if err := r.ledger.Transfer(owner, r.address, r.stake.Coin(amount)); err != nil {
		return err
	}
	return r.ledger.Mint(owner, r.position.Coin(amount))
}

func (r *StakingRewards) Unstake(owner chain.Address, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("unstake amount must be positive")
	}
	r.updateReward(owner)
	if err := r.ledger.Burn(owner, r.position.Coin(amount)); err != nil {
		return err
	}
	return r.ledger.Transfer(r.address, owner, r.stake.Coin(amount))
}

// ClaimRewards pays owner everything earned so far. Nothing owed is not an error.
func (r *StakingRewards) ClaimRewards(owner chain.Address) (math.Int, error) {
	r.updateReward(owner)
	owed := r.state.rewards[owner]
	if owed.IsNil() || !owed.IsPositive() {
		return math.ZeroInt(), nil
	}
	r.state.rewards[owner] = math.ZeroInt()
	if err := r.ledger.Transfer(r.address, owner, r.reward.Coin(owed)); err != nil {
		return math.ZeroInt(), err
	}
	return owed, nil
}

// NotifyRewardAmount funds a new period of the configured duration, rolling any undistributed
// remainder of the current period into it.
func (r *StakingRewards) NotifyRewardAmount(caller chain.Address, amount math.Int) error {
	if caller != r.distributor {
		return ErrNotDistributor
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("reward amount must be positive")
	}
	if err := r.ledger.Transfer(caller, r.address, r.reward.Coin(amount)); err != nil {
		return err
	}

	r.updateReward("")
	now := r.clock.Now()
	durationSeconds := int64(r.duration / time.Second)
	total := amount
	if now.Before(r.state.periodFinish) {
		remaining := int64(r.state.periodFinish.Sub(now) / time.Second)
		total = total.Add(r.state.rewardRate.MulRaw(remaining))
	}
	r.state.rewardRate = total.QuoRaw(durationSeconds)
	r.state.lastUpdate = now
	r.state.periodFinish = now.Add(r.duration)

	r.logger.Info().
		Str("amount", amount.String()).
		Str("rewardRate", r.state.rewardRate.String()).
		Time("periodFinish", r.state.periodFinish).
		Msg("Reward period started")
	return nil
}
