package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/images"
	"github.com/tayloree/confere/internal/premium"
	"github.com/tayloree/confere/internal/server"
	"github.com/tayloree/confere/internal/store/storetest"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type denied struct{}

func (denied) FetchStatus(context.Context) (*premium.StatusResponse, error) {
	return nil, errors.New("offline")
}

func newServer(t *testing.T, gate *premium.Cache) *serverHarness {
	t.Helper()
	return newServerWithImages(t, gate, t.TempDir())
}

func newServerWithImages(t *testing.T, gate *premium.Cache, imageDir string) *serverHarness {
	t.Helper()
	imgs := images.Local{Root: imageDir}
	a := app.Wire(storetest.New(t), imgs, gate, display.Money("AOA"), func() time.Time { return now })
	return &serverHarness{t: t, app: server.New(a, server.Options{})}
}

type serverHarness struct {
	t   *testing.T
	app *fiber.App
}

func (h *serverHarness) do(method, path, body string) (int, envelope) {
	h.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestPing(t *testing.T) {
	h := newServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCartCompareFlow(t *testing.T) {
	h := newServer(t, nil)

	code, env := h.do(http.MethodPost, "/api/v1/carts", `{"supermarket":"Kero"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	cart := decode[map[string]any](t, env.Data)
	id := cart["id"].(string)

	code, env = h.do(http.MethodPost, "/api/v1/carts/"+id+"/items", `{"name":"Arroz","price":1625,"quantity":2}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Equal(t, 3250.0, decode[map[string]any](t, env.Data)["total"])

	code, env = h.do(http.MethodPost, "/api/v1/carts/"+id+"/compare", `{"chargedTotal":"3.250,02"}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	cmp := decode[map[string]any](t, env.Data)
	assert.Equal(t, false, cmp["matches"])
	assert.InDelta(t, 0.02, cmp["difference"], 1e-9)

	code, env = h.do(http.MethodPost, "/api/v1/carts/"+id+"/compare", `{"chargedTotal":3250.005}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["matches"])

	code, env = h.do(http.MethodGet, "/api/v1/history?status=correct", "")
	require.Equal(t, http.StatusOK, code, env.Error)
	hist := decode[struct {
		Comparisons []map[string]any `json:"comparisons"`
		Summary     map[string]any   `json:"summary"`
	}](t, env.Data)
	assert.Len(t, hist.Comparisons, 1)
	assert.Equal(t, 1.0, hist.Summary["total"])
}

func TestImagesOutsideImageDirAreRefused(t *testing.T) {
	root := t.TempDir()
	h := newServerWithImages(t, nil, root)
	victim := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(victim, []byte("keep me"), 0o600))
	inside := filepath.Join(root, "arroz.jpg")
	require.NoError(t, os.WriteFile(inside, []byte("jpg"), 0o600))

	code, env := h.do(http.MethodPost, "/api/v1/carts", `{"supermarket":"Kero"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	id := decode[map[string]any](t, env.Data)["id"].(string)

	code, env = h.do(http.MethodPost, "/api/v1/carts/"+id+"/items",
		fmt.Sprintf(`{"name":"Arroz","price":1625,"quantity":1,"imageUri":%q}`, victim))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "imageUri")

	code, env = h.do(http.MethodPost, "/api/v1/carts/"+id+"/items",
		fmt.Sprintf(`{"name":"Arroz","price":1625,"quantity":1,"imageUri":%q}`, inside))
	require.Equal(t, http.StatusCreated, code, env.Error)
	added := decode[struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}](t, env.Data)
	require.Len(t, added.Items, 1)
	itemID := added.Items[0].ID

	code, _ = h.do(http.MethodPatch, "/api/v1/carts/"+id+"/items/"+itemID, fmt.Sprintf(`{"imageUri":%q}`, victim))
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = h.do(http.MethodPost, "/api/v1/carts/"+id+"/compare", `{"chargedTotal":1625}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	code, _ = h.do(http.MethodPost, "/api/v1/carts/"+id+"/comparison/photos", fmt.Sprintf(`{"uri":%q}`, victim))
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = h.do(http.MethodDelete, "/api/v1/carts/"+id+"/items/"+itemID, "")
	require.Equal(t, http.StatusOK, code, env.Error)
	_, err := os.Stat(inside)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestErrorMapping(t *testing.T) {
	h := newServer(t, nil)

	code, env := h.do(http.MethodGet, "/api/v1/carts/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Status)
	assert.Contains(t, env.Error, "not found")

	code, _ = h.do(http.MethodPost, "/api/v1/carts", `{"supermarket":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodPost, "/api/v1/carts/missing/compare", `{"chargedTotal":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, "/api/v1/budget", "")
	assert.Equal(t, http.StatusNotFound, code, "no budget")

	code, _ = h.do(http.MethodGet, "/api/v1/history?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodPost, "/api/v1/backup/restore", `{"version":"0.9.0"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestBudgetEndpoints(t *testing.T) {
	h := newServer(t, nil)

	code, env := h.do(http.MethodPut, "/api/v1/budget", `{"amount":1000}`)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = h.do(http.MethodGet, "/api/v1/budget", "")
	require.Equal(t, http.StatusOK, code, env.Error)
	body := decode[map[string]any](t, env.Data)
	assert.Equal(t, "none", body["alert"])

	code, env = h.do(http.MethodGet, "/api/v1/budget/check?amount=1500", "")
	require.Equal(t, http.StatusOK, code, env.Error)
	check := decode[map[string]any](t, env.Data)
	assert.Equal(t, false, check["allowed"])
	assert.Equal(t, 500.0, check["overflow"])

	code, _ = h.do(http.MethodPut, "/api/v1/budget", `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPricesRequirePremium(t *testing.T) {
	locked := newServer(t, premium.NewCache(denied{}, 0, nil))
	code, env := locked.do(http.MethodGet, "/api/v1/prices", "")
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.False(t, env.Status)

	open := newServer(t, nil)
	code, env = open.do(http.MethodGet, "/api/v1/prices?q=arroz", "")
	assert.Equal(t, http.StatusOK, code, env.Error)
}

func TestFavoritesAndAlerts(t *testing.T) {
	h := newServer(t, nil)

	code, env := h.do(http.MethodPost, "/api/v1/favorites/toggle", `{"name":"Arroz"}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["pinned"])

	code, env = h.do(http.MethodGet, "/api/v1/alerts?name=Arroz&price=500&store=Kero", "")
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, map[string]any{"alert": nil}, decode[map[string]any](t, env.Data))

	code, _ = h.do(http.MethodGet, "/api/v1/alerts?name=Arroz&price=500", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSuggestAndBackup(t *testing.T) {
	h := newServer(t, nil)

	code, env := h.do(http.MethodPost, "/api/v1/lists/suggest", `{"items":[{"name":"Leite","quantity":2}]}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	est := decode[map[string]any](t, env.Data)
	assert.Len(t, est["unknown"], 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backup", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "1.0.0", doc["version"])
}
