package sequence

import (
	"github.com/rsudds/bludpay/internal/sequence/repository"
	"github.com/rsudds/bludpay/internal/sequence/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
