package policy

import (
	"github.com/smallbiznis/settlement/internal/policy/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("policy",
	fx.Provide(NewHolder),
	fx.Provide(func(h *Holder) domain.Source { return h }),
)
