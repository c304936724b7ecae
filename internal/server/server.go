// Package server exposes the services as a JSON API over fiber.
package server

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/tayloree/confere/internal/app"
)

// Options tunes the middleware stack.
type Options struct {
	// RateLimit is requests per second per client; 0 disables the limiter.
	RateLimit int
	// AccessLog receives one line per request; nil disables it.
	AccessLog io.Writer
}

// New builds the fiber app with every route mounted.
func New(a *app.App, opts Options) *fiber.App {
	f := fiber.New(fiber.Config{
		AppName:               "confere",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return failure(c, "request failed", err)
		},
	})

	if opts.AccessLog != nil {
		f.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			Output:     opts.AccessLog,
		}))
	}
	if opts.RateLimit > 0 {
		f.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Second,
		}))
	}

	h := &handler{app: a}
	f.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})

	v1 := f.Group("/api/v1")

	carts := v1.Group("/carts")
	{
		carts.Get("/", h.listCarts)
		carts.Post("/", h.createCart)
		carts.Get("/:id", h.getCart)
		carts.Delete("/:id", h.deleteCart)
		carts.Post("/:id/items", h.addItem)
		carts.Patch("/:id/items/:itemID", h.updateItem)
		carts.Delete("/:id/items/:itemID", h.removeItem)
		carts.Post("/:id/compare", h.compare)
		carts.Get("/:id/comparison", h.getComparison)
		carts.Delete("/:id/comparison", h.deleteComparison)
		carts.Post("/:id/comparison/photos", h.attachPhoto)
		carts.Delete("/:id/comparison/photos/:index", h.removePhoto)
	}

	v1.Get("/history", h.history)

	favs := v1.Group("/favorites")
	{
		favs.Get("/", h.favorites)
		favs.Post("/toggle", h.toggleFavorite)
		favs.Get("/evolution", h.evolution)
	}

	v1.Get("/prices", h.requirePremium, h.prices)

	b := v1.Group("/budget")
	{
		b.Get("/", h.budgetStats)
		b.Put("/", h.setBudget)
		b.Get("/check", h.checkPurchase)
	}

	v1.Get("/alerts", h.evaluateAlert)
	v1.Post("/lists/suggest", h.suggest)

	bk := v1.Group("/backup")
	{
		bk.Get("/", h.exportBackup)
		bk.Post("/restore", h.restoreBackup)
	}

	return f
}
