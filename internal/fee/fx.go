package fee

import (
	"github.com/smallbiznis/settlement/internal/fee/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("fee.repository",
	fx.Provide(repository.NewReader),
)
