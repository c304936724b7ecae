// Package compare checks the amount charged at checkout against a cart's
// calculated total and keeps one comparison per cart.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/tayloree/confere/internal/images"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/store"
)

// Engine records comparisons.
type Engine struct {
	carts       store.CartStore
	comparisons store.ComparisonStore
	images      images.Store
	now         func() time.Time
}

// NewEngine builds an engine. now defaults to time.Now.
func NewEngine(carts store.CartStore, comparisons store.ComparisonStore, imgs images.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{carts: carts, comparisons: comparisons, images: imgs, now: now}
}

// Compare snapshots the cart total against charged and replaces any earlier
// comparison for the cart. Receipt photos of the earlier one are kept.
func (e *Engine) Compare(ctx context.Context, cartID string, charged float64) (*model.Comparison, error) {
	if charged < 0 {
		return nil, model.Invalid("chargedTotal", "must not be negative")
	}
	cart, err := e.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	return e.comparisons.UpsertComparison(ctx, cartID, func(prev *model.Comparison) (*model.Comparison, error) {
		c := model.NewComparison(*cart, charged, e.now())
		if prev != nil {
			c.ReceiptPhotos = append(c.ReceiptPhotos, prev.ReceiptPhotos...)
		}
		return &c, nil
	})
}

// Get returns the comparison recorded for a cart.
func (e *Engine) Get(ctx context.Context, cartID string) (*model.Comparison, error) {
	return e.comparisons.GetComparisonByCart(ctx, cartID)
}

// List returns every comparison, newest first.
func (e *Engine) List(ctx context.Context) ([]model.Comparison, error) {
	return e.comparisons.ListComparisons(ctx)
}

// Delete removes the comparison of a cart; the cart itself is untouched.
func (e *Engine) Delete(ctx context.Context, cartID string) error {
	c, err := e.comparisons.GetComparisonByCart(ctx, cartID)
	if err != nil {
		return err
	}
	if err := e.comparisons.DeleteComparison(ctx, cartID); err != nil {
		return err
	}
	for _, uri := range c.ReceiptPhotos {
		images.DeleteBestEffort(ctx, e.images, uri)
	}
	return nil
}

// AttachReceiptPhoto appends a photo to the cart's comparison.
func (e *Engine) AttachReceiptPhoto(ctx context.Context, cartID, uri string) (*model.Comparison, error) {
	if uri == "" {
		return nil, model.Invalid("uri", "is required")
	}
	if err := images.Validate(e.images, "uri", uri); err != nil {
		return nil, err
	}
	return e.edit(ctx, cartID, func(c *model.Comparison) error {
		c.ReceiptPhotos = append(c.ReceiptPhotos, uri)
		return nil
	})
}

// RemoveReceiptPhoto drops the photo at index and deletes the file.
func (e *Engine) RemoveReceiptPhoto(ctx context.Context, cartID string, index int) (*model.Comparison, error) {
	var uri string
	c, err := e.edit(ctx, cartID, func(c *model.Comparison) error {
		if index < 0 || index >= len(c.ReceiptPhotos) {
			return model.Invalid("index", fmt.Sprintf("must be between 0 and %d", len(c.ReceiptPhotos)-1))
		}
		uri = c.ReceiptPhotos[index]
		c.ReceiptPhotos = append(c.ReceiptPhotos[:index], c.ReceiptPhotos[index+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	images.DeleteBestEffort(ctx, e.images, uri)
	return c, nil
}

// edit changes the existing comparison of a cart in place.
func (e *Engine) edit(ctx context.Context, cartID string, change func(*model.Comparison) error) (*model.Comparison, error) {
	return e.comparisons.UpsertComparison(ctx, cartID, func(prev *model.Comparison) (*model.Comparison, error) {
		if prev == nil {
			return nil, model.NotFound("comparison for cart", cartID)
		}
		if err := change(prev); err != nil {
			return nil, err
		}
		return prev, nil
	})
}
