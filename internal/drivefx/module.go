package drivefx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(DriveConfigProvider),
	fx.Provide(DriveService),
	fx.Provide(RemoteClient),
)
