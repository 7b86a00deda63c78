// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/noticeboard/internal/app/store/users"
	"github.com/dalemusser/noticeboard/internal/app/system/timeouts"
	"github.com/dalemusser/noticeboard/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the schema is in place and
// before the handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})

	if appCfg.AdminUsername != "" {
		if err := ensureAdminUser(ctx, deps, appCfg.AdminUsername, appCfg.AdminPassword, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdminUser creates the admin account if it does not exist, or
// promotes and reactivates an existing account. An existing password is
// never overwritten.
func ensureAdminUser(ctx context.Context, deps DBDeps, username, password string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	existing, err := users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin && existing.Status == models.StatusActive {
			logger.Debug("admin user already present", zap.String("username", existing.Username))
			return nil
		}
		if err := users.Promote(ctx, existing.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote admin user: %w", err)
		}
		logger.Info("promoted existing user to admin", zap.String("username", existing.Username))
		return nil

	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := users.Create(ctx, models.User{
			Username: username,
			FullName: "Administrator",
			Role:     models.RoleAdmin,
			Status:   models.StatusActive,
		}, password)
		if errors.Is(err, userstore.ErrDuplicateUsername) {
			// Another instance won the race.
			return nil
		}
		if err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		logger.Info("created admin user", zap.String("username", created.Username))
		return nil

	default:
		return fmt.Errorf("look up admin user: %w", err)
	}
}
