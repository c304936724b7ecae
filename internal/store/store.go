// Package store persists carts, comparisons, the monthly budget, pinned
// favorites and app settings as individual records through gorm.
//
// Each collection has its own write lock, so at most one write per
// collection is in flight. Changes that depend on the stored state go
// through EditCart, UpsertComparison and TogglePinned, which read and
// write inside one transaction under that lock.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tayloree/confere/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type (
	CartStore interface {
		ListCarts(ctx context.Context) ([]model.Cart, error)
		GetCart(ctx context.Context, id string) (*model.Cart, error)
		SaveCart(ctx context.Context, cart *model.Cart) error
		EditCart(ctx context.Context, id string, edit func(*model.Cart) error) (*model.Cart, error)
		DeleteCart(ctx context.Context, id string) error
	}

	ComparisonStore interface {
		ListComparisons(ctx context.Context) ([]model.Comparison, error)
		GetComparisonByCart(ctx context.Context, cartID string) (*model.Comparison, error)
		UpsertComparison(ctx context.Context, cartID string, build func(prev *model.Comparison) (*model.Comparison, error)) (*model.Comparison, error)
		DeleteComparison(ctx context.Context, cartID string) error
	}

	BudgetStore interface {
		GetBudget(ctx context.Context) (*model.MonthlyBudget, error)
		SetBudget(ctx context.Context, b model.MonthlyBudget) error
	}

	FavoriteStore interface {
		PinnedFavorites(ctx context.Context) (map[string]bool, error)
		TogglePinned(ctx context.Context, key string) (bool, error)
	}

	SettingStore interface {
		GetSetting(ctx context.Context, key string) (string, bool, error)
		SetSetting(ctx context.Context, key, value string) error
	}
)

type pinnedFavorite struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

type setting struct {
	Name  string `gorm:"primaryKey"`
	Value string
}

// budgetSlot is the primary key of the single budget record.
const budgetSlot = 1

// Store is the gorm implementation of every collection interface.
type Store struct {
	db *gorm.DB

	cartsMu       sync.Mutex
	comparisonsMu sync.Mutex
	budgetMu      sync.Mutex
	favoritesMu   sync.Mutex
	settingsMu    sync.Mutex
}

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", model.ErrStorage, err)
	}
	if driver != DriverPostgres {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: opening database: %w", model.ErrStorage, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an open gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&model.Cart{},
		&model.CartItem{},
		&model.Comparison{},
		&model.MonthlyBudget{},
		&pinnedFavorite{},
		&setting{},
	); err != nil {
		return nil, fmt.Errorf("%w: migrating schema: %w", model.ErrStorage, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func storageErr(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStorage, action, err)
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// ListCarts returns every cart in creation order.
func (s *Store) ListCarts(ctx context.Context) ([]model.Cart, error) {
	var carts []model.Cart
	if err := withItems(s.db.WithContext(ctx)).Order("id ASC").Find(&carts).Error; err != nil {
		return nil, storageErr("listing carts", err)
	}
	return carts, nil
}

// GetCart returns the cart with the given id or model.ErrNotFound.
func (s *Store) GetCart(ctx context.Context, id string) (*model.Cart, error) {
	var cart model.Cart
	err := withItems(s.db.WithContext(ctx)).Where("id = ?", id).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFound("cart", id)
	}
	if err != nil {
		return nil, storageErr("reading cart", err)
	}
	return &cart, nil
}

// SaveCart inserts a new cart with its items.
func (s *Store) SaveCart(ctx context.Context, cart *model.Cart) error {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(cart).Error; err != nil {
			return err
		}
		return createItems(tx, cart)
	})
	if err != nil {
		return storageErr("saving cart", err)
	}
	return nil
}

// EditCart loads the cart, applies edit and writes the result back in one
// transaction. An error from edit aborts the write and is returned as is.
func (s *Store) EditCart(ctx context.Context, id string, edit func(*model.Cart) error) (*model.Cart, error) {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	var (
		cart    model.Cart
		editErr error
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := withItems(tx).Where("id = ?", id).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			editErr = model.NotFound("cart", id)
			return editErr
		}
		if err != nil {
			return err
		}
		if editErr = edit(&cart); editErr != nil {
			return editErr
		}
		return writeCart(tx, &cart)
	})
	if editErr != nil {
		return nil, editErr
	}
	if err != nil {
		return nil, storageErr("updating cart", err)
	}
	return &cart, nil
}

func writeCart(tx *gorm.DB, cart *model.Cart) error {
	if err := tx.Omit(clause.Associations).Save(cart).Error; err != nil {
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	return createItems(tx, cart)
}

func createItems(tx *gorm.DB, cart *model.Cart) error {
	if len(cart.Items) == 0 {
		return nil
	}
	for i := range cart.Items {
		cart.Items[i].CartID = cart.ID
		cart.Items[i].Position = i
	}
	return tx.Create(&cart.Items).Error
}

// DeleteCart removes the cart and its items. Its comparison is left alone.
func (s *Store) DeleteCart(ctx context.Context, id string) error {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Cart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.NotFound("cart", id)
		}
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return err
	}
	if err != nil {
		return storageErr("deleting cart", err)
	}
	return nil
}

// ListComparisons returns every comparison, newest first.
func (s *Store) ListComparisons(ctx context.Context) ([]model.Comparison, error) {
	var out []model.Comparison
	byDate := clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}
	if err := s.db.WithContext(ctx).Order(byDate).Find(&out).Error; err != nil {
		return nil, storageErr("listing comparisons", err)
	}
	return out, nil
}

// GetComparisonByCart returns the comparison recorded for a cart.
func (s *Store) GetComparisonByCart(ctx context.Context, cartID string) (*model.Comparison, error) {
	var c model.Comparison
	err := s.db.WithContext(ctx).Where("cart_id = ?", cartID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFound("comparison for cart", cartID)
	}
	if err != nil {
		return nil, storageErr("reading comparison", err)
	}
	return &c, nil
}

// SaveComparison upserts by cart id: afterwards exactly one comparison
// exists for c.CartID and it is c.
func (s *Store) SaveComparison(ctx context.Context, c *model.Comparison) error {
	_, err := s.UpsertComparison(ctx, c.CartID, func(*model.Comparison) (*model.Comparison, error) {
		return c, nil
	})
	return err
}

// UpsertComparison reads the comparison stored for cartID (nil when there
// is none), asks build for its replacement and stores it, all in one
// transaction. An error from build aborts the write and is returned as is.
func (s *Store) UpsertComparison(ctx context.Context, cartID string, build func(prev *model.Comparison) (*model.Comparison, error)) (*model.Comparison, error) {
	s.comparisonsMu.Lock()
	defer s.comparisonsMu.Unlock()

	var (
		next     *model.Comparison
		buildErr error
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev *model.Comparison
		var found model.Comparison
		err := tx.Where("cart_id = ?", cartID).First(&found).Error
		switch {
		case err == nil:
			prev = &found
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if next, buildErr = build(prev); buildErr != nil {
			return buildErr
		}
		next.CartID = cartID
		if next.ReceiptPhotos == nil {
			next.ReceiptPhotos = []string{}
		}
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.Comparison{}).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
	if buildErr != nil {
		return nil, buildErr
	}
	if err != nil {
		return nil, storageErr("saving comparison", err)
	}
	return next, nil
}

// DeleteComparison removes the comparison recorded for a cart.
func (s *Store) DeleteComparison(ctx context.Context, cartID string) error {
	s.comparisonsMu.Lock()
	defer s.comparisonsMu.Unlock()

	res := s.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.Comparison{})
	if res.Error != nil {
		return storageErr("deleting comparison", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("comparison for cart", cartID)
	}
	return nil
}

// GetBudget returns the stored budget, or nil when none was ever set.
func (s *Store) GetBudget(ctx context.Context) (*model.MonthlyBudget, error) {
	var b model.MonthlyBudget
	err := s.db.WithContext(ctx).Where("id = ?", budgetSlot).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("reading budget", err)
	}
	return &b, nil
}

// SetBudget overwrites the single budget slot.
func (s *Store) SetBudget(ctx context.Context, b model.MonthlyBudget) error {
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()

	b.ID = budgetSlot
	if err := s.db.WithContext(ctx).Save(&b).Error; err != nil {
		return storageErr("saving budget", err)
	}
	return nil
}

// PinnedFavorites returns the set of pinned product keys.
func (s *Store) PinnedFavorites(ctx context.Context) (map[string]bool, error) {
	var rows []pinnedFavorite
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, storageErr("listing favorites", err)
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.Name] = true
	}
	return out, nil
}

// TogglePinned flips a product key in the pinned set and reports whether
// it is pinned afterwards.
func (s *Store) TogglePinned(ctx context.Context, key string) (bool, error) {
	s.favoritesMu.Lock()
	defer s.favoritesMu.Unlock()

	var pinned bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("name = ?", key).Delete(&pinnedFavorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		pinned = true
		return tx.Create(&pinnedFavorite{Name: key}).Error
	})
	if err != nil {
		return false, storageErr("toggling favorite", err)
	}
	return pinned, nil
}

// GetSetting reads a setting; ok is false when it was never set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var row setting
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("reading setting", err)
	}
	return row.Value, true, nil
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&setting{Name: key, Value: value}).Error
	if err != nil {
		return storageErr("saving setting", err)
	}
	return nil
}

// Replace swaps every cart and comparison for the given ones in a single
// transaction.
func (s *Store) Replace(ctx context.Context, carts []model.Cart, comparisons []model.Comparison) error {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()
	s.comparisonsMu.Lock()
	defer s.comparisonsMu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&model.CartItem{}, &model.Cart{}, &model.Comparison{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}
		for i := range carts {
			cart := carts[i]
			if err := tx.Omit(clause.Associations).Create(&cart).Error; err != nil {
				return err
			}
			if err := createItems(tx, &cart); err != nil {
				return err
			}
		}
		for i := range comparisons {
			c := comparisons[i]
			if c.ReceiptPhotos == nil {
				c.ReceiptPhotos = []string{}
			}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("replacing data", err)
	}
	return nil
}
