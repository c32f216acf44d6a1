package organization

import (
	"github.com/smallbiznis/settlement/internal/organization/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.repository",
	fx.Provide(repository.NewDirectory),
)
