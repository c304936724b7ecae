package favorites_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/favorites"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/store"
	"github.com/tayloree/confere/internal/store/storetest"
)

var (
	ctx  = context.Background()
	base = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
)

func clock() time.Time { return base.AddDate(0, 0, 30) }

func item(name string, price float64) model.CartItem {
	return model.CartItem{ID: name + fmt.Sprint(price), Name: name, Price: price, Quantity: 1}
}

// tenCarts seeds ten carts on consecutive days; "Arroz" is in two of them.
func tenCarts(t *testing.T, s *store.Store) {
	t.Helper()
	for i := 0; i < 10; i++ {
		items := []model.CartItem{item("Leite", 400+float64(i))}
		if i == 2 || i == 7 {
			items = append(items, item("Arroz", 1000+float64(i)*10))
		}
		storetest.Seed(t, s, model.Cart{
			ID:          fmt.Sprintf("c%02d", i),
			Supermarket: "Kero",
			Date:        base.AddDate(0, 0, i),
			Items:       items,
		})
	}
}

func find(products []favorites.Product, key string) (favorites.Product, bool) {
	for _, p := range products {
		if p.Key == key {
			return p, true
		}
	}
	return favorites.Product{}, false
}

func TestDetectFrequent_WindowAndThreshold(t *testing.T) {
	s := storetest.New(t)
	tenCarts(t, s)
	d := favorites.NewDetector(s, s, clock)

	got := d.DetectFrequent(ctx, 2, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "leite", got[0].Key, "most frequent first")

	arroz, ok := find(got, "arroz")
	require.True(t, ok)
	assert.Equal(t, 2, arroz.Frequency)
	assert.Equal(t, 10, arroz.TotalPurchases)
	assert.Equal(t, 20, arroz.FrequencyPercentage)
	assert.Equal(t, 1045.0, arroz.AveragePrice)
	assert.Equal(t, 1020.0, arroz.LowestPrice)
	assert.Equal(t, 1070.0, arroz.HighestPrice)
	assert.Equal(t, 1070.0, arroz.LastPrice)
	assert.Equal(t, "Kero", arroz.LastSupermarket)
	assert.True(t, base.AddDate(0, 0, 7).Equal(arroz.LastDate))
	require.Len(t, arroz.History, 2)
	assert.Equal(t, 1070.0, arroz.History[0].Price, "history newest first")
	assert.False(t, arroz.IsMarkedFavorite)

	_, ok = find(d.DetectFrequent(ctx, 3, 10), "arroz")
	assert.False(t, ok)
}

func TestDetectFrequent_PinnedSurfacesBelowThreshold(t *testing.T) {
	s := storetest.New(t)
	tenCarts(t, s)
	d := favorites.NewDetector(s, s, clock)

	pinned, err := d.ToggleFavorite(ctx, "ARROZ")
	require.NoError(t, err)
	require.True(t, pinned)

	arroz, ok := find(d.DetectFrequent(ctx, 3, 10), "arroz")
	require.True(t, ok)
	assert.True(t, arroz.IsMarkedFavorite)
	assert.Equal(t, 2, arroz.Frequency)
}

func TestDetectFrequent_PinnedOutsideWindowIsAbsent(t *testing.T) {
	s := storetest.New(t)
	tenCarts(t, s)
	d := favorites.NewDetector(s, s, clock)
	_, err := d.ToggleFavorite(ctx, "Feijão")
	require.NoError(t, err)

	_, ok := find(d.DetectFrequent(ctx, 2, 10), "feijao")
	assert.False(t, ok)
}

func TestDetectFrequent_CountsOncePerCart(t *testing.T) {
	s := storetest.New(t)
	storetest.Seed(t, s, model.Cart{
		ID: "a", Supermarket: "Kero", Date: base,
		Items: []model.CartItem{item("Água", 100), item("agua", 110), item("Água", 120)},
	})
	d := favorites.NewDetector(s, s, clock)

	assert.Empty(t, d.DetectFrequent(ctx, 2, 10))
	got := d.DetectFrequent(ctx, 1, 10)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Frequency)
	assert.Equal(t, 100, got[0].FrequencyPercentage)
	assert.Len(t, got[0].History, 3)
}

func TestDetectFrequent_OnlyRecentWindow(t *testing.T) {
	s := storetest.New(t)
	tenCarts(t, s)
	d := favorites.NewDetector(s, s, clock)

	// the two newest carts hold only Leite
	got := d.DetectFrequent(ctx, 1, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "leite", got[0].Key)
	assert.Equal(t, 2, got[0].TotalPurchases)
}

func TestDetectFrequent_NoCarts(t *testing.T) {
	s := storetest.New(t)
	d := favorites.NewDetector(s, s, clock)
	assert.Empty(t, d.DetectFrequent(ctx, 0, 0))
}

func TestToggleFavorite(t *testing.T) {
	s := storetest.New(t)
	d := favorites.NewDetector(s, s, clock)

	on, err := d.ToggleFavorite(ctx, "Açúcar")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := d.ToggleFavorite(ctx, "acucar")
	require.NoError(t, err)
	assert.False(t, off)

	pins, err := s.PinnedFavorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, pins)

	_, err = d.ToggleFavorite(ctx, " -- ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestToggleFavorite_ConcurrentTogglesCancelOut(t *testing.T) {
	s := storetest.New(t)
	d := favorites.NewDetector(s, s, clock)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.ToggleFavorite(ctx, "Arroz")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pins, err := s.PinnedFavorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, pins)
}

func TestPriceEvolution(t *testing.T) {
	s := storetest.New(t)
	now := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	storetest.Seed(t, s,
		model.Cart{ID: "old", Supermarket: "Kero", Date: now.AddDate(0, -8, 0), Items: []model.CartItem{item("Óleo", 900)}},
		model.Cart{ID: "b", Supermarket: "Shoprite", Date: now.AddDate(0, -1, 0), Items: []model.CartItem{item("oleo", 950)}},
		model.Cart{ID: "a", Supermarket: "Kero", Date: now.AddDate(0, -3, 0), Items: []model.CartItem{item("OLEO", 920)}},
	)
	d := favorites.NewDetector(s, s, func() time.Time { return now })

	got := d.PriceEvolution(ctx, "Óleo", 6)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{920, 950}, pricing.Prices(got))
	assert.Equal(t, "Shoprite", got[1].Supermarket)

	assert.Len(t, d.PriceEvolution(ctx, "oleo", 12), 3)
	assert.Empty(t, d.PriceEvolution(ctx, "sal", 6))
}

type brokenStore struct{}

var errDisk = errors.New("disk on fire")

func (brokenStore) ListCarts(context.Context) ([]model.Cart, error)      { return nil, errDisk }
func (brokenStore) GetCart(context.Context, string) (*model.Cart, error) { return nil, errDisk }
func (brokenStore) SaveCart(context.Context, *model.Cart) error          { return errDisk }
func (brokenStore) DeleteCart(context.Context, string) error             { return errDisk }
func (brokenStore) PinnedFavorites(context.Context) (map[string]bool, error) {
	return nil, errDisk
}
func (brokenStore) EditCart(context.Context, string, func(*model.Cart) error) (*model.Cart, error) {
	return nil, errDisk
}
func (brokenStore) TogglePinned(context.Context, string) (bool, error) { return false, errDisk }

func TestStorageFailureDegradesToEmpty(t *testing.T) {
	d := favorites.NewDetector(brokenStore{}, brokenStore{}, clock)
	assert.Empty(t, d.DetectFrequent(ctx, 2, 10))
	assert.Empty(t, d.PriceEvolution(ctx, "arroz", 6))

	_, err := d.ToggleFavorite(ctx, "arroz")
	assert.ErrorIs(t, err, errDisk)
}
