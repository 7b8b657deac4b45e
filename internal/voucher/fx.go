package voucher

import (
	"github.com/rsudds/bludpay/internal/voucher/repository"
	"github.com/rsudds/bludpay/internal/voucher/service"
	"go.uber.org/fx"
)

var Module = fx.Module("voucher",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
