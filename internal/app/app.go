// Package app wires the store, image backends and services from a Config.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tayloree/confere/internal/alert"
	"github.com/tayloree/confere/internal/backup"
	"github.com/tayloree/confere/internal/budget"
	"github.com/tayloree/confere/internal/cart"
	"github.com/tayloree/confere/internal/compare"
	"github.com/tayloree/confere/internal/config"
	"github.com/tayloree/confere/internal/crossstore"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/favorites"
	"github.com/tayloree/confere/internal/images"
	"github.com/tayloree/confere/internal/premium"
	"github.com/tayloree/confere/internal/shoplist"
	"github.com/tayloree/confere/internal/store"
)

// App holds one instance of every service.
type App struct {
	Store   *store.Store
	Money   display.Money
	Premium *premium.Cache

	Carts     *cart.Service
	Compare   *compare.Engine
	Favorites *favorites.Detector
	Prices    *crossstore.Comparator
	Budget    *budget.Tracker
	Alerts    *alert.Evaluator
	Lists     *shoplist.Planner
	Backup    *backup.Service
}

// New opens the database and image backends named by cfg.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	s, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	mux := images.Mux{Local: images.Local{Root: cfg.ImageDir}}
	if cfg.ImageBackend == "s3" {
		s3, err := images.NewS3(ctx, images.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("setting up s3 images: %w", err)
		}
		mux.S3 = s3
	}

	return Wire(s, mux, premium.New(cfg.PremiumURL, cfg.DeviceID), display.Money(cfg.Currency), nil), nil
}

// Wire builds every service over s. now defaults to time.Now.
func Wire(s *store.Store, imgs images.Store, gate *premium.Cache, m display.Money, now func() time.Time) *App {
	if gate == nil {
		gate = premium.New("", "")
	}
	return &App{
		Store:     s,
		Money:     m,
		Premium:   gate,
		Carts:     cart.NewService(s, imgs, now),
		Compare:   compare.NewEngine(s, s, imgs, now),
		Favorites: favorites.NewDetector(s, s, now),
		Prices:    crossstore.NewComparator(s),
		Budget:    budget.NewTracker(s, s, now),
		Alerts:    alert.NewEvaluator(s, now),
		Lists:     shoplist.NewPlanner(s),
		Backup:    backup.NewService(s, now),
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}
