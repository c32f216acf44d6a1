package scheduler

import (
	"fmt"
	"time"

	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	"github.com/smallbiznis/settlement/internal/config"
)

const (
	JobSettlementEngine  = "settlement_engine"
	JobAutoSettlement    = "auto_settlement"
	JobCascadeRemittance = "cascade_remittance"
)

// Config controls scheduler intervals and the scheduled engine run.
type Config struct {
	RunInterval    time.Duration
	LockTTL        time.Duration
	CloseGrace     time.Duration
	JobTimeout     time.Duration
	EnabledJobs    []string
	Parties        []commissiondomain.Party
	MaxParallelism int
	PerformedBy    string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Hour,
		LockTTL:        30 * time.Minute,
		CloseGrace:     2 * time.Hour,
		JobTimeout:     10 * time.Minute,
		MaxParallelism: 4,
		PerformedBy:    "system",
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.CloseGrace <= 0 {
		c.CloseGrace = defaults.CloseGrace
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.MaxParallelism <= 0 {
		c.MaxParallelism = defaults.MaxParallelism
	}
	if c.PerformedBy == "" {
		c.PerformedBy = defaults.PerformedBy
	}
	return c
}

// ProvideConfig builds the scheduler config from the environment. A
// malformed party fails startup.
func ProvideConfig(cfg config.Config) (Config, error) {
	parties := make([]commissiondomain.Party, 0, len(cfg.Engine.Parties))
	for _, raw := range cfg.Engine.Parties {
		party, err := commissiondomain.ParseParty(raw, cfg.Engine.Currency)
		if err != nil {
			return Config{}, fmt.Errorf("SETTLEMENT_PARTIES: %w", err)
		}
		parties = append(parties, party)
	}
	return Config{
		RunInterval:    cfg.Scheduler.TickInterval,
		LockTTL:        cfg.Scheduler.LockTTL,
		CloseGrace:     cfg.Scheduler.CloseGrace,
		JobTimeout:     cfg.Scheduler.JobTimeout,
		EnabledJobs:    cfg.Scheduler.Jobs,
		Parties:        parties,
		MaxParallelism: cfg.Engine.MaxParallelism,
		PerformedBy:    cfg.Engine.PerformedBy,
	}.withDefaults(), nil
}
