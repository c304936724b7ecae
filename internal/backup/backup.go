// Package backup exports and restores carts, comparisons and the onboarding
// flag as a single JSON document.
//
// Carts and comparisons travel as JSON strings inside the document, the
// format the mobile app has always written.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/store"
)

// Version is the only document version Restore accepts.
const Version = "1.0.0"

// OnboardingKey is the setting that records a finished onboarding.
const OnboardingKey = "onboardingCompleted"

// Document is the backup file.
type Document struct {
	Version             string    `json:"version"`
	Timestamp           time.Time `json:"timestamp"`
	Carts               string    `json:"carts"`
	Comparisons         string    `json:"comparisons"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
}

// Store is what a backup reads and replaces.
type Store interface {
	store.CartStore
	store.ComparisonStore
	store.SettingStore
	Replace(ctx context.Context, carts []model.Cart, comparisons []model.Comparison) error
}

type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds a service. now defaults to time.Now.
func NewService(s Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, now: now}
}

// Export snapshots everything into a Document.
func (s *Service) Export(ctx context.Context) (*Document, error) {
	carts, err := s.store.ListCarts(ctx)
	if err != nil {
		return nil, err
	}
	comparisons, err := s.store.ListComparisons(ctx)
	if err != nil {
		return nil, err
	}
	onboarded, err := s.onboarded(ctx)
	if err != nil {
		return nil, err
	}

	if carts == nil {
		carts = []model.Cart{}
	}
	if comparisons == nil {
		comparisons = []model.Comparison{}
	}
	cartsBlob, err := json.Marshal(carts)
	if err != nil {
		return nil, fmt.Errorf("encoding carts: %w", err)
	}
	comparisonsBlob, err := json.Marshal(comparisons)
	if err != nil {
		return nil, fmt.Errorf("encoding comparisons: %w", err)
	}

	return &Document{
		Version:             Version,
		Timestamp:           s.now(),
		Carts:               string(cartsBlob),
		Comparisons:         string(comparisonsBlob),
		OnboardingCompleted: onboarded,
	}, nil
}

// Restore replaces all carts and comparisons with the document's. Documents
// of any other version are rejected with model.ErrUnsupportedBackup before
// anything is written.
func (s *Service) Restore(ctx context.Context, doc Document) error {
	if doc.Version != Version {
		return fmt.Errorf("%w: %q", model.ErrUnsupportedBackup, doc.Version)
	}

	var carts []model.Cart
	if err := decodeBlob(doc.Carts, &carts); err != nil {
		return model.Invalid("carts", err.Error())
	}
	var comparisons []model.Comparison
	if err := decodeBlob(doc.Comparisons, &comparisons); err != nil {
		return model.Invalid("comparisons", err.Error())
	}

	for i := range carts {
		c := &carts[i]
		for j := range c.Items {
			if c.Items[j].ID == "" {
				c.Items[j].ID = uuid.NewString()
			}
		}
		c.Recalculate()
		if err := model.Validate(c); err != nil {
			return fmt.Errorf("cart %q: %w", c.ID, err)
		}
	}
	for i := range comparisons {
		c := &comparisons[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.ReceiptPhotos == nil {
			c.ReceiptPhotos = []string{}
		}
		c.Recompute()
	}

	if err := s.store.Replace(ctx, carts, comparisons); err != nil {
		return err
	}
	return s.store.SetSetting(ctx, OnboardingKey, strconv.FormatBool(doc.OnboardingCompleted))
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Read decodes a document.
func Read(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, model.Invalid("backup", "not a backup document: "+err.Error())
	}
	return doc, nil
}

func (s *Service) onboarded(ctx context.Context) (bool, error) {
	v, ok, err := s.store.GetSetting(ctx, OnboardingKey)
	if err != nil || !ok {
		return false, err
	}
	done, _ := strconv.ParseBool(v)
	return done, nil
}

func decodeBlob(blob string, v any) error {
	if blob == "" {
		return nil
	}
	return json.Unmarshal([]byte(blob), v)
}
