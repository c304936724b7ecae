// Package images deletes the photos attached to cart items and receipts.
// Deletion is always best effort: failures are logged, never returned to
// the cart or comparison operation that triggered them. A backend only
// ever touches URIs it owns: files under the image directory, or keys in
// the configured bucket.
package images

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/tayloree/confere/internal/model"
)

// ErrOutsideRoot reports a URI the backend does not manage.
var ErrOutsideRoot = errors.New("outside the image directory")

// Store is an image backend addressed by URI. Allowed reports whether uri
// belongs to the backend; Exists and Delete refuse URIs that do not.
type Store interface {
	Allowed(uri string) error
	Exists(ctx context.Context, uri string) (bool, error)
	Delete(ctx context.Context, uri string) error
}

// Validate turns a refused URI into a validation error on field. Blank URIs
// and a nil store pass.
func Validate(s Store, field, uri string) error {
	if s == nil || strings.TrimSpace(uri) == "" {
		return nil
	}
	if err := s.Allowed(uri); err != nil {
		return model.Invalid(field, err.Error())
	}
	return nil
}

// DeleteBestEffort removes uri if it exists. Errors are logged and swallowed.
func DeleteBestEffort(ctx context.Context, s Store, uri string) {
	if s == nil || strings.TrimSpace(uri) == "" {
		return
	}
	ok, err := s.Exists(ctx, uri)
	if err != nil {
		log.Warnw("checking image before delete", "uri", uri, "err", err)
		return
	}
	if !ok {
		return
	}
	if err := s.Delete(ctx, uri); err != nil {
		log.Warnw("deleting image", "uri", uri, "err", err)
	}
}

// Local stores images as files under Root. URIs are file:// URIs or paths;
// relative paths are taken from Root. Nothing outside Root is ever touched.
type Local struct {
	Root string
}

func localPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil {
			return u.Path
		}
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}

// realPath resolves symlinks in p, or in its parent when p does not exist.
func realPath(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		return filepath.Join(dir, filepath.Base(p))
	}
	return p
}

// resolve maps uri to an absolute path strictly inside Root.
func (l Local) resolve(uri string) (string, error) {
	if strings.TrimSpace(l.Root) == "" {
		return "", fmt.Errorf("%w: no image directory configured", ErrOutsideRoot)
	}
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return "", err
	}
	p := localPath(uri)
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	root, p = realPath(root), realPath(filepath.Clean(p))

	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, uri)
	}
	return p, nil
}

func (l Local) Allowed(uri string) error {
	_, err := l.resolve(uri)
	return err
}

func (l Local) Exists(_ context.Context, uri string) (bool, error) {
	p, err := l.resolve(uri)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (l Local) Delete(_ context.Context, uri string) error {
	p, err := l.resolve(uri)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// Mux routes s3:// URIs to an S3 backend and everything else to Local.
type Mux struct {
	Local Store
	S3    Store
}

func (m Mux) route(uri string) (Store, error) {
	if strings.HasPrefix(uri, "s3://") {
		if m.S3 == nil {
			return nil, errors.New("no S3 backend configured for " + uri)
		}
		return m.S3, nil
	}
	if m.Local == nil {
		return Local{}, nil
	}
	return m.Local, nil
}

func (m Mux) Allowed(uri string) error {
	s, err := m.route(uri)
	if err != nil {
		return err
	}
	return s.Allowed(uri)
}

func (m Mux) Exists(ctx context.Context, uri string) (bool, error) {
	s, err := m.route(uri)
	if err != nil {
		return false, err
	}
	return s.Exists(ctx, uri)
}

func (m Mux) Delete(ctx context.Context, uri string) error {
	s, err := m.route(uri)
	if err != nil {
		return err
	}
	return s.Delete(ctx, uri)
}
