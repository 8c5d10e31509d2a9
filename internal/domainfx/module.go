package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewCron),
	fx.Provide(EngineConfigProvider),
	fx.Provide(Engine),
	fx.Provide(RetentionConfigProvider),
	fx.Invoke(RunEngine),
	fx.Invoke(RunRetentionSweep),
)
