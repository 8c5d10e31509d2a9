package main

import (
	"time"

	"go.uber.org/fx"

	"github.com/osipovk/autobackuper/internal/configfx"
	"github.com/osipovk/autobackuper/internal/domainfx"
	"github.com/osipovk/autobackuper/internal/drivefx"
	"github.com/osipovk/autobackuper/internal/loggerfx"
	"github.com/osipovk/autobackuper/internal/rulefx"
	"github.com/osipovk/autobackuper/internal/sqlfx"
	"github.com/osipovk/autobackuper/internal/statusfx"
)

func main() {
	logger := loggerfx.Logger()

	app := fx.New(
		fx.StartTimeout(15*time.Second),
		fx.StopTimeout(15*time.Second),

		fx.Logger(logger),

		loggerfx.Module,
		configfx.Module,
		rulefx.Module,
		sqlfx.Module,
		drivefx.Module,
		statusfx.Module,
		domainfx.Module,
	)

	app.Run()
}
