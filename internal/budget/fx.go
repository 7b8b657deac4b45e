package budget

import (
	"github.com/rsudds/bludpay/internal/budget/repository"
	"github.com/rsudds/bludpay/internal/budget/service"
	"go.uber.org/fx"
)

var Module = fx.Module("budget",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
