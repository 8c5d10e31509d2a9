package rulefx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(RuleStoreConfigProvider),
	fx.Provide(RuleStoreProvider),
	fx.Provide(LoadRules),
)
