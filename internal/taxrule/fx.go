package taxrule

import (
	"github.com/rsudds/bludpay/internal/taxrule/repository"
	"github.com/rsudds/bludpay/internal/taxrule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("taxrule",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
		service.NewResolver,
		service.NewCalculator,
		service.NewManagement,
	),
)
