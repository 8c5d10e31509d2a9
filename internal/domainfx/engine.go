package domainfx

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/osipovk/autobackuper/pkg/domain"
	"github.com/osipovk/autobackuper/pkg/storage"
)

const (
	ConfigEngineInterval   = "engine.interval"
	ConfigHistoryRetention = "history.retention"

	DefaultHistoryRetention = 30 * 24 * time.Hour
)

func NewCron() *cron.Cron {
	return cron.New()
}

type EngineConfig struct {
	Interval time.Duration
}

func EngineConfigProvider(v *viper.Viper) *EngineConfig {
	return &EngineConfig{
		Interval: v.GetDuration(ConfigEngineInterval),
	}
}

func Engine(
	logger *logrus.Logger,
	rules []domain.Rule,
	client domain.RemoteClient,
	history domain.UploadRecorder,
	config *EngineConfig,
) (*domain.Engine, error) {
	return domain.NewEngine(logger, rules, client, history, config.Interval)
}

// RunEngine starts the tick loop in the background and stops it by context
// cancellation, waiting for the loop to drain before shutdown completes.
func RunEngine(lc fx.Lifecycle, engine *domain.Engine, logger *logrus.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				_ = engine.Run(ctx)
			}()

			go logEvents(logger, engine.Events())

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// logEvents is the stand-in for an external display: it consumes the
// engine's notifications until the event channel closes.
func logEvents(logger logrus.FieldLogger, events <-chan domain.Event) {
	for event := range events {
		switch event.Kind {
		case domain.EventTickCompleted:
			logger.Debug("Tick completed")
		case domain.EventRuleError:
			logger.WithField("message", event.Message).Warn("Rule reported an error")
		}
	}
}

type RetentionConfig struct {
	Retention time.Duration
}

func RetentionConfigProvider(v *viper.Viper) *RetentionConfig {
	retention := v.GetDuration(ConfigHistoryRetention)
	if retention <= 0 {
		retention = DefaultHistoryRetention
	}

	return &RetentionConfig{
		Retention: retention,
	}
}

// RunRetentionSweep prunes old upload history once a day.
func RunRetentionSweep(
	lc fx.Lifecycle,
	c *cron.Cron,
	repo *storage.UploadRepository,
	config *RetentionConfig,
	logger *logrus.Logger,
) error {
	_, err := c.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		cutoff := time.Now().Add(-config.Retention)

		deleted, err := repo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			logger.WithError(err).Error("Unable to sweep old upload history")
			return
		}

		logger.WithField("total_deleted", deleted).Info("Swept old upload history")
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})

	return nil
}
