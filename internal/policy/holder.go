package policy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	"github.com/smallbiznis/settlement/internal/config"
	"github.com/smallbiznis/settlement/internal/policy/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// File is the shape of policy.yml.
type File struct {
	RuleSet      RuleSetSpec      `mapstructure:"rule_set" validate:"required"`
	Distribution DistributionSpec `mapstructure:"distribution"`
}

type RuleSetSpec struct {
	ID    string                      `mapstructure:"id" validate:"required"`
	Rules []commissiondomain.RuleSpec `mapstructure:"rules" validate:"required,min=1,dive"`
}

type DistributionSpec struct {
	Default *RatesSpec           `mapstructure:"default"`
	Years   map[string]RatesSpec `mapstructure:"years" validate:"dive"`
}

type RatesSpec struct {
	NationalRate string `mapstructure:"national_rate" validate:"required,numeric"`
	DivisionRate string `mapstructure:"division_rate" validate:"required,numeric"`
	BranchRate   string `mapstructure:"branch_rate" validate:"required,numeric"`
}

// DefaultPolicy is used when no policy file exists: one 10% default rule and
// the 0.6/0.25/0.15 split.
func DefaultPolicy() domain.Policy {
	return domain.Policy{
		RuleSet: commissiondomain.RuleSet{
			ID: "default",
			Rules: []commissiondomain.Rule{
				commissiondomain.PercentageRule{
					RuleMeta: commissiondomain.RuleMeta{ID: "default", Name: "Default commission"},
					Rate:     decimal.NewFromInt(10),
				},
			},
		},
		DefaultRates: domain.DefaultRates(),
		RatesByYear:  map[int]domain.DistributionRates{},
	}
}

// Holder serves the current policy and swaps it when the file changes.
// Reloads that fail validation are logged and ignored.
type Holder struct {
	current atomic.Value // holds domain.Policy
	log     *zap.Logger
}

func NewHolder(cfg config.Config, log *zap.Logger) (*Holder, error) {
	log = log.Named("policy")

	v := viper.New()
	if path := strings.TrimSpace(cfg.PolicyPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("policy")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/settlement")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SETTLEMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &Holder{log: log}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read policy: %w", err)
		}
		log.Info("no policy file found, using defaults")
		holder.current.Store(DefaultPolicy())
		return holder, nil
	}

	p, err := Load(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(p)
	log.Info("policy loaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.String("rule_set_id", p.RuleSet.ID),
		zap.Int("rules", len(p.RuleSet.Rules)),
	)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := Load(v)
		if err != nil {
			log.Warn("invalid policy ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("policy reloaded", zap.String("file", e.Name), zap.String("rule_set_id", updated.RuleSet.ID))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *Holder) Get() domain.Policy {
	return h.current.Load().(domain.Policy)
}

func (h *Holder) RuleSet(context.Context) (commissiondomain.RuleSet, error) {
	return h.Get().RuleSet, nil
}

func (h *Holder) DistributionRates(_ context.Context, year int) (domain.DistributionRates, error) {
	return h.Get().Rates(year), nil
}

var validate = validator.New()

// Load decodes, validates and compiles the policy held by v.
func Load(v *viper.Viper) (domain.Policy, error) {
	var file File
	if err := v.Unmarshal(&file); err != nil {
		return domain.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return domain.Policy{}, fmt.Errorf("validate policy: %w", err)
	}
	return compile(file)
}

func compile(file File) (domain.Policy, error) {
	p := domain.Policy{
		RuleSet:      commissiondomain.RuleSet{ID: strings.TrimSpace(file.RuleSet.ID)},
		DefaultRates: domain.DefaultRates(),
		RatesByYear:  map[int]domain.DistributionRates{},
	}

	for _, spec := range file.RuleSet.Rules {
		rule, err := commissiondomain.NewRule(spec)
		if err != nil {
			return domain.Policy{}, err
		}
		p.RuleSet.Rules = append(p.RuleSet.Rules, rule)
	}
	if err := p.RuleSet.Validate(); err != nil {
		return domain.Policy{}, err
	}

	if file.Distribution.Default != nil {
		rates, err := file.Distribution.Default.toRates()
		if err != nil {
			return domain.Policy{}, fmt.Errorf("distribution.default: %w", err)
		}
		p.DefaultRates = rates
	}
	for rawYear, spec := range file.Distribution.Years {
		year, err := strconv.Atoi(strings.TrimSpace(rawYear))
		if err != nil || year <= 0 {
			return domain.Policy{}, fmt.Errorf("%w: year %q", domain.ErrInvalidRates, rawYear)
		}
		rates, err := spec.toRates()
		if err != nil {
			return domain.Policy{}, fmt.Errorf("distribution.years.%d: %w", year, err)
		}
		p.RatesByYear[year] = rates
	}
	return p, nil
}

func (s RatesSpec) toRates() (domain.DistributionRates, error) {
	var rates domain.DistributionRates
	for _, field := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{s.NationalRate, &rates.NationalRate},
		{s.DivisionRate, &rates.DivisionRate},
		{s.BranchRate, &rates.BranchRate},
	} {
		d, err := decimal.NewFromString(strings.TrimSpace(field.raw))
		if err != nil {
			return domain.DistributionRates{}, fmt.Errorf("%w: %q", domain.ErrInvalidRates, field.raw)
		}
		*field.dst = d
	}
	if err := rates.Validate(); err != nil {
		return domain.DistributionRates{}, err
	}
	return rates, nil
}
