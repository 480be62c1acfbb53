package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/lncproducciones/eshops-cart/internal/config"
	"github.com/lncproducciones/eshops-cart/internal/models"
)

const (
	ComponentName    = "eshops-cart"
	ComponentVersion = "1.0.0"
)

// CatalogReporter reports the last known catalog connectivity. Only the
// startup probe and the watcher change it.
type CatalogReporter interface {
	Status() models.CatalogStatus
}

func NewHealthHandler(cfg *config.Config, catalog CatalogReporter) (*health.Health, error) {

	checks := storageChecks(cfg)

	if catalog != nil {
		checks = append(checks, health.Config{
			Name:    "catalog",
			Timeout: cfg.Catalog.Timeout,
			// the cart keeps working with the catalog offline
			SkipOnErr: true,
			Check: func(context.Context) error {
				if status := catalog.Status(); !status.Online {
					return fmt.Errorf("catalog is offline (version %q)", status.Version)
				}
				return nil
			},
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    ComponentName,
			Version: ComponentVersion,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

func storageChecks(cfg *config.Config) []health.Config {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return []health.Config{{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		}}
	case config.StorageRedis:
		return []health.Config{{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		}}
	default:
		return nil
	}
}
