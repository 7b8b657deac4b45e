package coa

import "go.uber.org/fx"

var Module = fx.Module("coa.repository",
	fx.Provide(NewRepository),
)
