package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
)

const (
	minBrowseWidth  = 92
	minBrowseHeight = 24

	overchargedGroup = "Overcharged"
)

var (
	browseHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	browseMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	browseHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	browseValueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	browseBadStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	browseOKStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	browseSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
)

type browseLoadConfig struct {
	ctx         context.Context
	app         *app.App
	initialOpts filter.Options
}

type browseDataLoadedMsg struct {
	comparisons []model.Comparison
	carts       map[string]model.Cart
}

type browseDataLoadErrMsg struct {
	err error
}

type browseFocus int

const (
	browseFocusList browseFocus = iota
	browseFocusDetail
)

type browseGroupItem struct {
	name    string
	count   int
	ordinal int
}

func (g browseGroupItem) FilterValue() string { return strings.ToLower(g.name) }
func (g browseGroupItem) Title() string       { return fmt.Sprintf("%d. %s", g.ordinal, g.name) }
func (g browseGroupItem) Description() string {
	return fmt.Sprintf("Section • %d checkouts", g.count)
}

type browseCheckoutItem struct {
	comparison  model.Comparison
	group       string
	title       string
	description string
	filterValue string
}

func (c browseCheckoutItem) FilterValue() string { return c.filterValue }
func (c browseCheckoutItem) Title() string       { return c.title }
func (c browseCheckoutItem) Description() string { return c.description }

type browseModel struct {
	loading  bool
	spinner  spinner.Model
	loadCmd  tea.Cmd
	fatalErr error

	money       display.Money
	comparisons []model.Comparison
	carts       map[string]model.Cart
	summary     filter.Summary

	opts        filter.Options
	initialOpts filter.Options

	statusChoices []filter.Status
	statusIndex   int
	storeChoices  []string
	storeIndex    int
	limitChoices  []int
	limitIndex    int

	list   list.Model
	detail viewport.Model

	focus      browseFocus
	showHelp   bool
	selectedID string

	groupStarts []int
	visible     int

	width, height   int
	bodyHeight      int
	listPaneWidth   int
	detailPaneWidth int
	tooSmall        bool
}

func newBrowseModel(cfg browseLoadConfig) browseModel {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(1)

	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Checkouts"
	lst.SetStatusBarItemName("item", "items")
	lst.SetShowStatusBar(true)
	lst.SetFilteringEnabled(true)
	lst.SetShowHelp(false)
	lst.SetShowPagination(true)
	lst.DisableQuitKeybindings()

	detail := viewport.New(0, 0)
	detail.KeyMap.PageDown.SetKeys("f", "pgdown")
	detail.KeyMap.PageUp.SetKeys("b", "pgup")
	detail.KeyMap.HalfPageDown.SetKeys("d")
	detail.KeyMap.HalfPageUp.SetKeys("u")

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	var money display.Money
	if cfg.app != nil {
		money = cfg.app.Money
	}

	return browseModel{
		loading:     true,
		spinner:     spin,
		loadCmd:     loadBrowseDataCmd(cfg),
		money:       money,
		initialOpts: cfg.initialOpts,
		opts:        cfg.initialOpts,
		list:        lst,
		detail:      detail,
		focus:       browseFocusList,
	}
}

func loadBrowseDataCmd(cfg browseLoadConfig) tea.Cmd {
	return func() tea.Msg {
		comparisons, err := cfg.app.Compare.List(cfg.ctx)
		if err != nil {
			return browseDataLoadErrMsg{err: err}
		}
		carts, err := cfg.app.Carts.List(cfg.ctx)
		if err != nil {
			return browseDataLoadErrMsg{err: err}
		}
		byID := make(map[string]model.Cart, len(carts))
		for _, c := range carts {
			byID[c.ID] = c
		}
		return browseDataLoadedMsg{comparisons: comparisons, carts: byID}
	}
}

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd)
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case browseDataLoadedMsg:
		m.loading = false
		m.setData(msg.comparisons, msg.carts)
		m.resize()
		return m, nil

	case browseDataLoadErrMsg:
		m.loading = false
		m.fatalErr = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey {
		if keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			if keyMsg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	if m.loading {
		return m, nil
	}

	if isKey && m.list.FilterState() != list.Filtering {
		if cmd, handled := m.handleKey(keyMsg.String()); handled {
			return m, cmd
		}
		if m.focus == browseFocusDetail {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.refreshDetail(false)
	return m, cmd
}

// handleKey runs the inline shortcuts. It reports false for keys the list
// or the detail viewport should see instead.
func (m *browseModel) handleKey(key string) (tea.Cmd, bool) {
	switch key {
	case "q":
		return tea.Quit, true
	case "tab":
		if m.focus == browseFocusList {
			m.focus = browseFocusDetail
		} else {
			m.focus = browseFocusList
		}
		return nil, true
	case "esc":
		if m.focus == browseFocusDetail {
			m.focus = browseFocusList
			return nil, true
		}
		return nil, false
	case "?":
		m.showHelp = !m.showHelp
		m.resize()
		return nil, true
	case "e":
		m.statusIndex = (m.statusIndex + 1) % len(m.statusChoices)
		m.opts.Status = m.statusChoices[m.statusIndex]
		m.applyCurrentFilters(false)
		return nil, true
	case "m":
		m.storeIndex = (m.storeIndex + 1) % len(m.storeChoices)
		m.opts.Supermarket = m.storeChoices[m.storeIndex]
		m.applyCurrentFilters(false)
		return nil, true
	case "l":
		m.limitIndex = (m.limitIndex + 1) % len(m.limitChoices)
		m.opts.Limit = m.limitChoices[m.limitIndex]
		m.applyCurrentFilters(false)
		return nil, true
	case "r":
		m.opts = m.initialOpts
		m.syncChoiceIndexes()
		m.applyCurrentFilters(false)
		return nil, true
	case "]", "[":
		if m.list.IsFiltered() {
			return m.list.NewStatusMessage("Clear fuzzy filter before section jumps."), true
		}
		if key == "]" {
			m.jumpSection(1)
		} else {
			m.jumpSection(-1)
		}
		return nil, true
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		if m.list.IsFiltered() {
			return m.list.NewStatusMessage("Clear fuzzy filter before section jumps."), true
		}
		m.jumpToSection(int(key[0] - '1'))
		return nil, true
	}
	return nil, false
}

func (m *browseModel) setData(comparisons []model.Comparison, carts map[string]model.Cart) {
	m.comparisons = comparisons
	m.carts = carts
	m.summary = filter.Summarize(comparisons)

	m.statusChoices = []filter.Status{filter.StatusAll, filter.StatusErrors, filter.StatusCorrect}
	m.storeChoices = buildStoreChoices(comparisons, m.opts.Supermarket)
	m.limitChoices = buildLimitChoices(m.opts.Limit)
	m.syncChoiceIndexes()
	m.initialOpts = m.opts
	m.applyCurrentFilters(true)
}

func (m *browseModel) syncChoiceIndexes() {
	m.statusIndex = 0
	for i, s := range m.statusChoices {
		if s == m.opts.Status {
			m.statusIndex = i
		}
	}
	m.opts.Status = m.statusChoices[m.statusIndex]

	m.storeIndex = indexOfStringFold(m.storeChoices, m.opts.Supermarket)
	if m.storeIndex < 0 {
		m.storeIndex = 0
	}
	m.opts.Supermarket = m.storeChoices[m.storeIndex]

	m.limitIndex = indexOfInt(m.limitChoices, m.opts.Limit)
	if m.limitIndex < 0 {
		m.limitIndex = 0
	}
	m.opts.Limit = m.limitChoices[m.limitIndex]
}

func (m browseModel) View() string {
	if m.loading {
		return m.loadingView()
	}
	if m.width == 0 || m.height == 0 {
		return browseMetaStyle.Render("Loading interface...")
	}
	if m.tooSmall {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(fmt.Sprintf(
				"Terminal too small (%dx%d).\nResize to at least %dx%d to browse checkouts.",
				m.width, m.height, minBrowseWidth, minBrowseHeight,
			))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		m.bodyView(),
		m.footerView(),
	)
}

func (m browseModel) loadingView() string {
	width := m.width
	if width == 0 {
		width = 80
	}
	lines := []string{
		browseHeaderStyle.Render("confere browse"),
		"",
		fmt.Sprintf("%s Reading carts and checkouts", m.spinner.View()),
		browseHintStyle.Render("Press q to cancel."),
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (m *browseModel) resize() {
	if m.width == 0 || m.height == 0 || m.loading {
		return
	}

	m.tooSmall = m.width < minBrowseWidth || m.height < minBrowseHeight
	if m.tooSmall {
		return
	}

	footerH := 2
	if m.showHelp {
		footerH = 6
	}
	m.bodyHeight = max(8, m.height-3-footerH-1)

	listWidth := max(40, m.width*2/5)
	detailWidth := m.width - listWidth - 1
	if detailWidth < 36 {
		detailWidth = 36
		listWidth = m.width - detailWidth - 1
	}
	m.listPaneWidth = listWidth
	m.detailPaneWidth = detailWidth

	innerHeight := max(6, m.bodyHeight-2)
	m.list.SetSize(max(24, listWidth-4), innerHeight)
	m.detail.Width = max(24, detailWidth-4)
	m.detail.Height = innerHeight
	m.refreshDetail(false)
}

func (m browseModel) headerView() string {
	focus := "list"
	if m.focus == browseFocusDetail {
		focus = "detail"
	}

	top := fmt.Sprintf("confere browse  |  %d correct, %d errors, %s overcharged",
		m.summary.Correct, m.summary.Errors, m.money.Format(m.summary.Overcharged))
	bottom := fmt.Sprintf(
		"checkouts: %d visible / %d total  |  filters: %s  |  focus: %s",
		m.visible, len(m.comparisons), m.activeFilterSummary(), focus,
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(browseHeaderStyle.Render(top) + "\n" + browseMetaStyle.Render(bottom))
}

func (m browseModel) bodyView() string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Padding(0, 1)
	listBorder, detailBorder := border, border
	if m.focus == browseFocusList {
		listBorder = listBorder.BorderForeground(lipgloss.Color("86"))
	} else {
		detailBorder = detailBorder.BorderForeground(lipgloss.Color("86"))
	}

	left := listBorder.Width(m.listPaneWidth).Height(m.bodyHeight).Render(m.list.View())
	right := detailBorder.Width(m.detailPaneWidth).Height(m.bodyHeight).Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m browseModel) footerView() string {
	base := "Tab switch pane • / fuzzy filter • e status • m supermarket • l limit • r reset • [/] section • 1-9 section index • q quit"
	if m.focus == browseFocusDetail {
		base = "Detail: j/k or ↑/↓ scroll • u/d half-page • b/f page • esc list • ? help • q quit"
	}
	if !m.showHelp {
		return lipgloss.NewStyle().Padding(0, 1).Render(browseHintStyle.Render(base))
	}

	lines := []string{
		"Key Help",
		"list pane: ↑/↓ or j/k move • / fuzzy filter • e all/errors/correct • m supermarket • l limit",
		"sections: ] next • [ previous • 1..9 jump to numbered section header",
		"global: tab switch pane • esc list • r reset filters • ? toggle help • q quit • ctrl+c force quit",
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(browseHintStyle.Render(strings.Join(lines, "\n")))
}

func (m browseModel) activeFilterSummary() string {
	parts := []string{}
	if m.opts.Status != filter.StatusAll {
		parts = append(parts, "status:"+string(m.opts.Status))
	}
	if m.opts.Supermarket != "" {
		parts = append(parts, "store:"+m.opts.Supermarket)
	}
	if m.opts.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit:%d", m.opts.Limit))
	}
	if fuzzy := strings.TrimSpace(m.list.FilterValue()); fuzzy != "" {
		parts = append(parts, "fuzzy:"+fuzzy)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func (m *browseModel) applyCurrentFilters(resetSelection bool) {
	currentID := m.selectedID
	visible := filter.Apply(m.comparisons, m.opts)
	m.visible = len(visible)

	items, starts := buildGroupedCheckouts(visible, m.money)
	m.groupStarts = starts
	m.list.Title = fmt.Sprintf("Checkouts • %d visible", m.visible)
	m.list.SetItems(items)

	target := -1
	if !resetSelection && currentID != "" {
		target = findItemIndexByID(items, currentID)
	}
	if target < 0 {
		target = firstCheckoutIndexFrom(items, 0)
	}
	if target < 0 && len(items) > 0 {
		target = 0
	}
	if target >= 0 {
		m.list.Select(target)
	}
	m.refreshDetail(true)
}

func (m *browseModel) refreshDetail(resetScroll bool) {
	var content string
	nextID := ""

	switch item := m.list.SelectedItem().(type) {
	case browseCheckoutItem:
		cart, ok := m.carts[item.comparison.CartID]
		var cartPtr *model.Cart
		if ok {
			cartPtr = &cart
		}
		content = renderCheckoutDetail(item.comparison, cartPtr, m.money, m.detail.Width)
		nextID = stableIDForItem(item)
	case browseGroupItem:
		content = m.renderGroupDetail(item)
		nextID = stableIDForItem(item)
	}
	if content == "" {
		content = "No checkouts match the current filters.\n\nPress r to reset filters."
	}

	if resetScroll || nextID != m.selectedID {
		m.detail.GotoTop()
	}
	m.selectedID = nextID
	m.detail.SetContent(content)
}

func (m browseModel) renderGroupDetail(group browseGroupItem) string {
	lines := []string{
		browseSectionStyle.Render(fmt.Sprintf("Section %d: %s", group.ordinal, group.name)),
		browseMetaStyle.Render(fmt.Sprintf("%d checkouts in this section", group.count)),
		"",
	}
	shown := 0
	for _, item := range m.list.Items() {
		c, ok := item.(browseCheckoutItem)
		if !ok || c.group != group.name {
			continue
		}
		lines = append(lines, "• "+c.title)
		if shown++; shown >= 5 {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func (m *browseModel) jumpToSection(index int) {
	if index < 0 || index >= len(m.groupStarts) {
		return
	}
	target := firstCheckoutIndexFrom(m.list.Items(), m.groupStarts[index])
	if target < 0 {
		target = m.groupStarts[index]
	}
	m.list.Select(target)
	m.refreshDetail(true)
}

func (m *browseModel) jumpSection(delta int) {
	if len(m.groupStarts) == 0 {
		return
	}
	cursor := m.list.GlobalIndex()
	current := 0
	for i, start := range m.groupStarts {
		if start > cursor {
			break
		}
		current = i
	}
	next := (current + delta + len(m.groupStarts)) % len(m.groupStarts)
	m.jumpToSection(next)
}

// buildGroupedCheckouts puts overcharged checkouts in their own first
// section, then groups the rest by supermarket, biggest group first. Order
// within a section follows the input.
func buildGroupedCheckouts(comparisons []model.Comparison, money display.Money) (items []list.Item, starts []int) {
	if len(comparisons) == 0 {
		return nil, nil
	}

	groups := map[string][]model.Comparison{}
	for _, c := range comparisons {
		name := overchargedGroup
		if filter.Correct(c) {
			name = strings.TrimSpace(c.Supermarket)
		}
		groups[name] = append(groups[name], c)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if (a == overchargedGroup) != (b == overchargedGroup) {
			return a == overchargedGroup
		}
		if len(groups[a]) != len(groups[b]) {
			return len(groups[a]) > len(groups[b])
		}
		return a < b
	})

	items = make([]list.Item, 0, len(comparisons)+len(names))
	starts = make([]int, 0, len(names))
	for i, name := range names {
		starts = append(starts, len(items))
		items = append(items, browseGroupItem{name: name, count: len(groups[name]), ordinal: i + 1})
		for _, c := range groups[name] {
			items = append(items, newBrowseCheckoutItem(c, name, money))
		}
	}
	return items, starts
}

func newBrowseCheckoutItem(c model.Comparison, group string, money display.Money) browseCheckoutItem {
	date := c.Date.Local().Format("2006-01-02")
	verdict := "match"
	switch {
	case c.Overcharged():
		verdict = "overcharged " + money.Signed(c.Difference)
	case c.Undercharged():
		verdict = "undercharged " + money.Signed(c.Difference)
	}

	return browseCheckoutItem{
		comparison:  c,
		group:       group,
		title:       fmt.Sprintf("%s  %s", c.Supermarket, money.Format(c.ChargedTotal)),
		description: date + "  •  " + verdict,
		filterValue: strings.ToLower(strings.Join([]string{c.Supermarket, date, verdict, group}, " ")),
	}
}

func renderCheckoutDetail(c model.Comparison, cart *model.Cart, money display.Money, width int) string {
	width = max(24, width)

	verdict := browseOKStyle.Render("MATCH")
	switch {
	case c.Overcharged():
		verdict = browseBadStyle.Render("OVERCHARGED")
	case c.Undercharged():
		verdict = browseValueStyle.Render("UNDERCHARGED")
	}

	lines := []string{
		browseHeaderStyle.Render(wrapText(c.Supermarket, width)),
		browseMetaStyle.Render(c.Date.Local().Format("Mon 02 Jan 2006 15:04")),
		"",
		verdict,
		fmt.Sprintf("%s %s", browseMetaStyle.Render("Calculated:"), browseValueStyle.Render(money.Format(c.CalculatedTotal))),
		fmt.Sprintf("%s %s", browseMetaStyle.Render("Charged:   "), browseValueStyle.Render(money.Format(c.ChargedTotal))),
	}
	if !c.Matches {
		lines = append(lines, fmt.Sprintf("%s %s", browseMetaStyle.Render("Difference:"), money.Signed(c.Difference)))
	}

	lines = append(lines, "", browseSectionStyle.Render("Items"))
	if cart == nil {
		lines = append(lines, browseMetaStyle.Render("The cart was deleted; only the totals remain."))
	} else {
		for _, item := range cart.Items {
			line := fmt.Sprintf("%d × %s  %s", item.Quantity, item.Name, money.Format(item.Price*float64(item.Quantity)))
			lines = append(lines, wrapText(line, width))
		}
	}

	if len(c.ReceiptPhotos) > 0 {
		lines = append(lines, "", browseSectionStyle.Render("Receipt photos"))
		for i, uri := range c.ReceiptPhotos {
			lines = append(lines, browseMetaStyle.Render(wrapText(fmt.Sprintf("%d. %s", i+1, uri), width)))
		}
	}
	return strings.Join(lines, "\n")
}

func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if width < 12 {
		width = 12
	}

	line := words[0]
	lines := make([]string, 0, len(words)/6+1)
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// buildStoreChoices lists each supermarket once, most checkouts first, after
// the empty "any" choice. current is kept even when no checkout matches it.
func buildStoreChoices(comparisons []model.Comparison, current string) []string {
	counts := map[string]int{}
	labels := map[string]string{}
	for _, c := range comparisons {
		name := strings.TrimSpace(c.Supermarket)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := labels[key]; !ok {
			labels[key] = name
		}
		counts[key]++
	}
	if current = strings.TrimSpace(current); current != "" {
		if _, ok := labels[strings.ToLower(current)]; !ok {
			labels[strings.ToLower(current)] = current
		}
	}

	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	out := make([]string, 0, len(keys)+1)
	out = append(out, "")
	for _, key := range keys {
		out = append(out, labels[key])
	}
	return out
}

func buildLimitChoices(current int) []int {
	values := []int{0, 10, 25, 50}
	if current > 0 && indexOfInt(values, current) < 0 {
		values = append(values, current)
		sort.Ints(values)
	}
	return values
}

func indexOfStringFold(values []string, target string) int {
	for i, value := range values {
		if strings.EqualFold(value, target) {
			return i
		}
	}
	return -1
}

func indexOfInt(values []int, target int) int {
	for i, value := range values {
		if value == target {
			return i
		}
	}
	return -1
}

func findItemIndexByID(items []list.Item, stableID string) int {
	for i, item := range items {
		if stableIDForItem(item) == stableID {
			return i
		}
	}
	return -1
}

func firstCheckoutIndexFrom(items []list.Item, start int) int {
	for i := start; i < len(items); i++ {
		if _, ok := items[i].(browseCheckoutItem); ok {
			return i
		}
	}
	return -1
}

func stableIDForItem(item list.Item) string {
	switch value := item.(type) {
	case browseCheckoutItem:
		return "checkout:" + value.comparison.CartID
	case browseGroupItem:
		return "group:" + strings.ToLower(value.name)
	default:
		return ""
	}
}
