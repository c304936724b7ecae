// Package cart creates and edits shopping carts. Every mutation recomputes
// the cart total from its items before it is persisted.
package cart

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tayloree/confere/internal/images"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/store"
)

// ItemInput describes a new line item.
type ItemInput struct {
	Name     string
	Price    float64
	Quantity int
	ImageURI string
}

// ItemPatch edits an existing line item; nil fields are left unchanged.
type ItemPatch struct {
	Name     *string
	Price    *float64
	Quantity *int
	ImageURI *string
}

// Service owns cart lifecycle operations.
type Service struct {
	carts  store.CartStore
	images images.Store
	now    func() time.Time
}

// NewService builds a cart service. now defaults to time.Now.
func NewService(carts store.CartStore, imgs images.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{carts: carts, images: imgs, now: now}
}

// Create starts a cart at a supermarket.
func (s *Service) Create(ctx context.Context, supermarket string, dailyBudget *float64) (*model.Cart, error) {
	created := s.now()
	cart := &model.Cart{
		ID:          model.NewCartID(created),
		Supermarket: strings.TrimSpace(supermarket),
		Date:        created,
		Items:       []model.CartItem{},
		DailyBudget: dailyBudget,
	}
	if err := model.Validate(cart); err != nil {
		return nil, err
	}

	// Two carts created within the same millisecond would share an id.
	for {
		_, err := s.carts.GetCart(ctx, cart.ID)
		if errors.Is(err, model.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		created = created.Add(time.Millisecond)
		cart.ID = model.NewCartID(created)
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Get returns one cart.
func (s *Service) Get(ctx context.Context, id string) (*model.Cart, error) {
	return s.carts.GetCart(ctx, id)
}

// List returns every cart, newest first.
func (s *Service) List(ctx context.Context) ([]model.Cart, error) {
	carts, err := s.carts.ListCarts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(carts, func(i, j int) bool {
		return carts[i].Date.After(carts[j].Date)
	})
	return carts, nil
}

// AddItem appends a validated line item.
func (s *Service) AddItem(ctx context.Context, cartID string, in ItemInput) (*model.Cart, error) {
	item := model.CartItem{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Quantity: in.Quantity,
		ImageURI: in.ImageURI,
	}
	if err := model.Validate(item); err != nil {
		return nil, err
	}
	if err := images.Validate(s.images, "imageUri", item.ImageURI); err != nil {
		return nil, err
	}

	return s.carts.EditCart(ctx, cartID, func(cart *model.Cart) error {
		cart.Items = append(cart.Items, item)
		cart.Recalculate()
		return nil
	})
}

// UpdateItem edits a line item in place. A replaced image is deleted.
func (s *Service) UpdateItem(ctx context.Context, cartID, itemID string, patch ItemPatch) (*model.Cart, error) {
	if patch.ImageURI != nil {
		if err := images.Validate(s.images, "imageUri", *patch.ImageURI); err != nil {
			return nil, err
		}
	}

	var oldImage, newImage string
	saved, err := s.carts.EditCart(ctx, cartID, func(cart *model.Cart) error {
		idx := cart.ItemIndex(itemID)
		if idx < 0 {
			return model.NotFound("item", itemID)
		}
		item := cart.Items[idx]
		oldImage = item.ImageURI
		if patch.Name != nil {
			item.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			item.Price = *patch.Price
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.ImageURI != nil {
			item.ImageURI = *patch.ImageURI
		}
		if err := model.Validate(item); err != nil {
			return err
		}
		newImage = item.ImageURI
		cart.Items[idx] = item
		cart.Recalculate()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if oldImage != "" && oldImage != newImage {
		images.DeleteBestEffort(ctx, s.images, oldImage)
	}
	return saved, nil
}

// RemoveItem drops a line item and deletes its image.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*model.Cart, error) {
	var removed model.CartItem
	saved, err := s.carts.EditCart(ctx, cartID, func(cart *model.Cart) error {
		idx := cart.ItemIndex(itemID)
		if idx < 0 {
			return model.NotFound("item", itemID)
		}
		removed = cart.Items[idx]
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		cart.Recalculate()
		return nil
	})
	if err != nil {
		return nil, err
	}
	images.DeleteBestEffort(ctx, s.images, removed.ImageURI)
	return saved, nil
}

// Delete removes a cart and its item images. A comparison recorded for the
// cart is kept.
func (s *Service) Delete(ctx context.Context, cartID string) error {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteCart(ctx, cartID); err != nil {
		return err
	}
	for _, item := range cart.Items {
		images.DeleteBestEffort(ctx, s.images, item.ImageURI)
	}
	return nil
}
