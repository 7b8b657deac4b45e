package audit

import (
	"github.com/rsudds/bludpay/internal/audit/repository"
	"github.com/rsudds/bludpay/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
