package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

// Start verifies the record store answers and starts the River client when
// one was configured. The HTTP listener is started by the caller.
func (a *Application) Start(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Store.Ping(ctx); err != nil {
		return fmt.Errorf("record store unreachable: %w", err)
	}
	logger.Info("Record store reachable", zap.String("driver", a.DB.Driver))

	if a.DB.RiverClient == nil {
		return nil
	}
	if err := a.DB.RiverClient.Start(ctx); err != nil {
		return fmt.Errorf("start river client: %w", err)
	}
	logger.Info("River client started, roster report jobs will run")
	return nil
}

// Shutdown releases components in reverse start order: the River client
// first so no job touches a closed store, then modules and finally the
// database handles. Bounded by server.shutdown_timeout.
func (a *Application) Shutdown() {
	ctx := context.Background()
	if a.Config != nil && a.Config.Server.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		defer cancel()
	}

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(ctx); err != nil {
			logger.Error("River client stop failed", zap.Error(err))
		} else {
			logger.Info("River client stopped")
		}
	}

	for i := len(a.Modules) - 1; i >= 0; i-- {
		mod := a.Modules[i]
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(ctx); err != nil {
			logger.Warn("Module shutdown failed",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.DB != nil {
		a.DB.Close()
		logger.Info("Record store closed", zap.String("driver", a.DB.Driver))
	}
}
