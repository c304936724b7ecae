package server

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/backup"
	"github.com/tayloree/confere/internal/cart"
	"github.com/tayloree/confere/internal/compare"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
)

type handler struct {
	app *app.App
}

type (
	createCartRequest struct {
		Supermarket string   `json:"supermarket"`
		DailyBudget *float64 `json:"dailyBudget"`
	}

	itemRequest struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		ImageURI string  `json:"imageUri"`
	}

	itemPatchRequest struct {
		Name     *string  `json:"name"`
		Price    *float64 `json:"price"`
		Quantity *int     `json:"quantity"`
		ImageURI *string  `json:"imageUri"`
	}

	compareRequest struct {
		// ChargedTotal is a number or a typed amount such as "Kz 3 250,50".
		ChargedTotal any `json:"chargedTotal"`
	}

	photoRequest struct {
		URI string `json:"uri"`
	}

	nameRequest struct {
		Name string `json:"name"`
	}

	amountRequest struct {
		Amount float64 `json:"amount"`
	}

	suggestRequest struct {
		Items []model.ShoppingListItem `json:"items"`
	}
)

func badBody(c *fiber.Ctx, err error) error {
	return failure(c, "invalid request body", model.Invalid("body", err.Error()))
}

func (h *handler) listCarts(c *fiber.Ctx) error {
	carts, err := h.app.Carts.List(c.UserContext())
	if err != nil {
		return failure(c, "failed to list carts", err)
	}
	return success(c, fiber.StatusOK, "carts", carts)
}

func (h *handler) createCart(c *fiber.Ctx) error {
	req := new(createCartRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	cart, err := h.app.Carts.Create(c.UserContext(), req.Supermarket, req.DailyBudget)
	if err != nil {
		return failure(c, "failed to create cart", err)
	}
	return success(c, fiber.StatusCreated, "cart created", cart)
}

func (h *handler) getCart(c *fiber.Ctx) error {
	cart, err := h.app.Carts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(c, "failed to get cart", err)
	}
	return success(c, fiber.StatusOK, "cart", cart)
}

func (h *handler) deleteCart(c *fiber.Ctx) error {
	if err := h.app.Carts.Delete(c.UserContext(), c.Params("id")); err != nil {
		return failure(c, "failed to delete cart", err)
	}
	return success(c, fiber.StatusOK, "cart deleted", nil)
}

func (h *handler) addItem(c *fiber.Ctx) error {
	req := new(itemRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	updated, err := h.app.Carts.AddItem(c.UserContext(), c.Params("id"), cart.ItemInput{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		ImageURI: req.ImageURI,
	})
	if err != nil {
		return failure(c, "failed to add item", err)
	}
	return success(c, fiber.StatusCreated, "item added", updated)
}

func (h *handler) updateItem(c *fiber.Ctx) error {
	req := new(itemPatchRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	updated, err := h.app.Carts.UpdateItem(c.UserContext(), c.Params("id"), c.Params("itemID"), cart.ItemPatch{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		ImageURI: req.ImageURI,
	})
	if err != nil {
		return failure(c, "failed to update item", err)
	}
	return success(c, fiber.StatusOK, "item updated", updated)
}

func (h *handler) removeItem(c *fiber.Ctx) error {
	updated, err := h.app.Carts.RemoveItem(c.UserContext(), c.Params("id"), c.Params("itemID"))
	if err != nil {
		return failure(c, "failed to remove item", err)
	}
	return success(c, fiber.StatusOK, "item removed", updated)
}

func (h *handler) compare(c *fiber.Ctx) error {
	req := new(compareRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	var charged float64
	switch v := req.ChargedTotal.(type) {
	case float64:
		charged = v
	case string:
		parsed, err := compare.ParseAmount(v)
		if err != nil {
			return failure(c, "failed to compare", err)
		}
		charged = parsed
	default:
		return failure(c, "failed to compare", model.Invalid("chargedTotal", "is required"))
	}

	cmp, err := h.app.Compare.Compare(c.UserContext(), c.Params("id"), charged)
	if err != nil {
		return failure(c, "failed to compare", err)
	}
	return success(c, fiber.StatusOK, "comparison saved", cmp)
}

func (h *handler) getComparison(c *fiber.Ctx) error {
	cmp, err := h.app.Compare.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(c, "failed to get comparison", err)
	}
	return success(c, fiber.StatusOK, "comparison", cmp)
}

func (h *handler) deleteComparison(c *fiber.Ctx) error {
	if err := h.app.Compare.Delete(c.UserContext(), c.Params("id")); err != nil {
		return failure(c, "failed to delete comparison", err)
	}
	return success(c, fiber.StatusOK, "comparison deleted", nil)
}

func (h *handler) attachPhoto(c *fiber.Ctx) error {
	req := new(photoRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	cmp, err := h.app.Compare.AttachReceiptPhoto(c.UserContext(), c.Params("id"), strings.TrimSpace(req.URI))
	if err != nil {
		return failure(c, "failed to attach photo", err)
	}
	return success(c, fiber.StatusOK, "photo attached", cmp)
}

func (h *handler) removePhoto(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return failure(c, "failed to remove photo", model.Invalid("index", "must be a number"))
	}
	cmp, err := h.app.Compare.RemoveReceiptPhoto(c.UserContext(), c.Params("id"), index)
	if err != nil {
		return failure(c, "failed to remove photo", err)
	}
	return success(c, fiber.StatusOK, "photo removed", cmp)
}

func (h *handler) history(c *fiber.Ctx) error {
	status, ok := filter.ParseStatus(c.Query("status"))
	if !ok {
		return failure(c, "failed to list history", model.Invalid("status", "must be all, correct or errors"))
	}
	all, err := h.app.Compare.List(c.UserContext())
	if err != nil {
		return failure(c, "failed to list history", err)
	}
	items := filter.Apply(all, filter.Options{
		Supermarket: c.Query("store"),
		Status:      status,
		Limit:       c.QueryInt("limit"),
	})
	return success(c, fiber.StatusOK, "history", fiber.Map{
		"comparisons": items,
		"summary":     filter.Summarize(all),
	})
}

func (h *handler) favorites(c *fiber.Ctx) error {
	products := h.app.Favorites.DetectFrequent(c.UserContext(), c.QueryInt("min"), c.QueryInt("window"))
	return success(c, fiber.StatusOK, "favorites", products)
}

func (h *handler) toggleFavorite(c *fiber.Ctx) error {
	req := new(nameRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	pinned, err := h.app.Favorites.ToggleFavorite(c.UserContext(), req.Name)
	if err != nil {
		return failure(c, "failed to toggle favorite", err)
	}
	return success(c, fiber.StatusOK, "favorite toggled", fiber.Map{"name": req.Name, "pinned": pinned})
}

func (h *handler) evolution(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return failure(c, "failed to get price evolution", model.Invalid("name", "is required"))
	}
	points := h.app.Favorites.PriceEvolution(c.UserContext(), name, c.QueryInt("months"))
	return success(c, fiber.StatusOK, "price evolution", points)
}

func (h *handler) requirePremium(c *fiber.Ctx) error {
	if !h.app.Premium.IsPremium(c.UserContext()) {
		return failure(c, "premium feature", errPremiumRequired)
	}
	return c.Next()
}

func (h *handler) prices(c *fiber.Ctx) error {
	products := h.app.Prices.Search(c.UserContext(), c.Query("q"))
	return success(c, fiber.StatusOK, "prices", products)
}

func (h *handler) budgetStats(c *fiber.Ctx) error {
	stats, err := h.app.Budget.Stats(c.UserContext())
	if err != nil {
		return failure(c, "failed to get budget", err)
	}
	return success(c, fiber.StatusOK, "budget", fiber.Map{
		"stats": stats,
		"alert": h.app.Budget.AlertLevel(c.UserContext()),
	})
}

func (h *handler) setBudget(c *fiber.Ctx) error {
	req := new(amountRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	b, err := h.app.Budget.SetMonthlyBudget(c.UserContext(), req.Amount)
	if err != nil {
		return failure(c, "failed to set budget", err)
	}
	return success(c, fiber.StatusOK, "budget set", b)
}

func (h *handler) checkPurchase(c *fiber.Ctx) error {
	amount, err := compare.ParseAmount(c.Query("amount"))
	if err != nil {
		return failure(c, "failed to check purchase", err)
	}
	allowed, overflow := h.app.Budget.CanAddPurchase(c.UserContext(), amount)
	return success(c, fiber.StatusOK, "purchase check", fiber.Map{"allowed": allowed, "overflow": overflow})
}

func (h *handler) evaluateAlert(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return failure(c, "failed to evaluate price", model.Invalid("name", "is required"))
	}
	price, err := compare.ParseAmount(c.Query("price"))
	if err != nil {
		return failure(c, "failed to evaluate price", err)
	}
	store := strings.TrimSpace(c.Query("store"))
	if store == "" {
		return failure(c, "failed to evaluate price", model.Invalid("store", "is required"))
	}
	a := h.app.Alerts.Evaluate(c.UserContext(), name, price, store)
	return success(c, fiber.StatusOK, "price alert", fiber.Map{"alert": a})
}

func (h *handler) suggest(c *fiber.Ctx) error {
	req := new(suggestRequest)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}
	est, err := h.app.Lists.Suggest(c.UserContext(), req.Items)
	if err != nil {
		return failure(c, "failed to price list", err)
	}
	return success(c, fiber.StatusOK, "estimate", est)
}

func (h *handler) exportBackup(c *fiber.Ctx) error {
	doc, err := h.app.Backup.Export(c.UserContext())
	if err != nil {
		return failure(c, "failed to export backup", err)
	}
	return c.Status(fiber.StatusOK).JSON(doc)
}

func (h *handler) restoreBackup(c *fiber.Ctx) error {
	doc := new(backup.Document)
	if err := c.BodyParser(doc); err != nil {
		return badBody(c, err)
	}
	if err := h.app.Backup.Restore(c.UserContext(), *doc); err != nil {
		return failure(c, "failed to restore backup", err)
	}
	return success(c, fiber.StatusOK, "backup restored", nil)
}
