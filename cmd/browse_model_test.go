package cmd

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
)

func checkout(cartID, supermarket string, calculated, charged float64, daysAgo int) model.Comparison {
	cart := model.Cart{ID: cartID, Supermarket: supermarket, Total: calculated}
	return model.NewComparison(cart, charged, time.Now().AddDate(0, 0, -daysAgo))
}

func sampleCheckouts() []model.Comparison {
	return []model.Comparison{
		checkout("1", "Kero", 100, 100, 1),
		checkout("2", "Shoprite", 200, 250, 2),
		checkout("3", "Shoprite", 300, 300, 3),
		checkout("4", "Kero", 400, 390, 4),
		checkout("5", "Candando", 50, 50, 5),
	}
}

func groupNames(items []list.Item) []string {
	var names []string
	for _, item := range items {
		if g, ok := item.(browseGroupItem); ok {
			names = append(names, g.name)
		}
	}
	return names
}

func TestBuildGroupedCheckouts_OverchargedFirst(t *testing.T) {
	items, starts := buildGroupedCheckouts(sampleCheckouts(), display.Money("USD"))

	assert.Equal(t, []string{overchargedGroup, "Kero", "Candando", "Shoprite"}, groupNames(items))
	assert.Equal(t, []int{0, 2, 5, 7}, starts)

	first, ok := items[1].(browseCheckoutItem)
	require.True(t, ok)
	assert.Equal(t, "2", first.comparison.CartID)
	assert.Contains(t, first.description, "overcharged")

	under, ok := items[4].(browseCheckoutItem)
	require.True(t, ok)
	assert.Equal(t, "4", under.comparison.CartID)
	assert.Contains(t, under.description, "undercharged")
}

func TestBuildGroupedCheckouts_Empty(t *testing.T) {
	items, starts := buildGroupedCheckouts(nil, display.Money("USD"))
	assert.Empty(t, items)
	assert.Empty(t, starts)
}

func TestBuildStoreChoices(t *testing.T) {
	got := buildStoreChoices(sampleCheckouts(), "")
	assert.Equal(t, []string{"", "Kero", "Shoprite", "Candando"}, got)

	kept := buildStoreChoices(sampleCheckouts(), "Maxi")
	assert.Contains(t, kept, "Maxi")
	assert.Equal(t, "", kept[0])

	folded := buildStoreChoices(sampleCheckouts(), "kero")
	assert.Len(t, folded, 4)
}

func TestBuildLimitChoices(t *testing.T) {
	assert.Equal(t, []int{0, 10, 25, 50}, buildLimitChoices(0))
	assert.Equal(t, []int{0, 10, 25, 50}, buildLimitChoices(25))
	assert.Equal(t, []int{0, 10, 15, 25, 50}, buildLimitChoices(15))
}

func TestRenderCheckoutDetail(t *testing.T) {
	money := display.Money("USD")
	c := checkout("2", "Shoprite", 200, 250, 0)

	orphan := renderCheckoutDetail(c, nil, money, 60)
	assert.Contains(t, orphan, "OVERCHARGED")
	assert.Contains(t, orphan, "The cart was deleted")

	cart := &model.Cart{ID: "2", Items: []model.CartItem{{Name: "Arroz", Price: 100, Quantity: 2}}}
	withCart := renderCheckoutDetail(c, cart, money, 60)
	assert.Contains(t, withCart, "2 × Arroz")
	assert.NotContains(t, withCart, "The cart was deleted")

	c.ReceiptPhotos = []string{"/tmp/talao.jpg"}
	assert.Contains(t, renderCheckoutDetail(c, cart, money, 60), "1. /tmp/talao.jpg")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "", wrapText("   ", 20))
	assert.Equal(t, "alpha beta\ngamma", wrapText("alpha beta gamma", 12))
}

func TestStableIDForItem(t *testing.T) {
	assert.Equal(t, "checkout:7", stableIDForItem(browseCheckoutItem{comparison: model.Comparison{CartID: "7"}}))
	assert.Equal(t, "group:kero", stableIDForItem(browseGroupItem{name: "Kero"}))
}

func TestBrowseModel_StatusCycle(t *testing.T) {
	m := newBrowseModel(browseLoadConfig{initialOpts: filter.Options{}})
	m.money = display.Money("USD")
	m.loading = false
	m.setData(sampleCheckouts(), map[string]model.Cart{})

	assert.Equal(t, filter.StatusAll, m.opts.Status)
	assert.Equal(t, 5, m.visible)

	_, handled := m.handleKey("e")
	require.True(t, handled)
	assert.Equal(t, filter.StatusErrors, m.opts.Status)
	assert.Equal(t, 1, m.visible)

	m.handleKey("e")
	assert.Equal(t, filter.StatusCorrect, m.opts.Status)
	assert.Equal(t, 4, m.visible)

	m.handleKey("e")
	assert.Equal(t, filter.StatusAll, m.opts.Status)
}

func TestBrowseModel_StoreLimitAndReset(t *testing.T) {
	m := newBrowseModel(browseLoadConfig{initialOpts: filter.Options{Status: filter.StatusAll}})
	m.loading = false
	m.setData(sampleCheckouts(), map[string]model.Cart{})

	m.handleKey("m")
	assert.Equal(t, "Kero", m.opts.Supermarket)
	assert.Equal(t, 2, m.visible)

	m.handleKey("l")
	assert.Equal(t, 10, m.opts.Limit)

	m.handleKey("r")
	assert.Equal(t, "", m.opts.Supermarket)
	assert.Equal(t, 0, m.opts.Limit)
	assert.Equal(t, 5, m.visible)
}

func TestBrowseModel_FocusAndUnhandledKeys(t *testing.T) {
	m := newBrowseModel(browseLoadConfig{})
	m.loading = false
	m.setData(sampleCheckouts(), map[string]model.Cart{})

	m.handleKey("tab")
	assert.Equal(t, browseFocusDetail, m.focus)
	_, handled := m.handleKey("esc")
	assert.True(t, handled)
	assert.Equal(t, browseFocusList, m.focus)

	_, handled = m.handleKey("esc")
	assert.False(t, handled)
	_, handled = m.handleKey("x")
	assert.False(t, handled)
}
