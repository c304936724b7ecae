// Package export writes carts, checkouts and price comparisons to an xlsx
// workbook.
package export

import (
	"fmt"
	"io"

	"github.com/tayloree/confere/internal/crossstore"
	"github.com/tayloree/confere/internal/model"
	"github.com/tealeg/xlsx"
)

// Sheet names, in workbook order.
const (
	SheetCarts       = "Carts"
	SheetItems       = "Items"
	SheetComparisons = "Checkouts"
	SheetPrices      = "Prices"
)

// Data is everything a workbook holds.
type Data struct {
	Carts       []model.Cart
	Comparisons []model.Comparison
	Prices      []crossstore.ProductPrice
}

// Write renders d as an xlsx workbook.
func Write(w io.Writer, d Data) error {
	file := xlsx.NewFile()

	carts, err := addSheet(file, SheetCarts, "ID", "Supermarket", "Date", "Items", "Total")
	if err != nil {
		return err
	}
	items, err := addSheet(file, SheetItems, "Cart", "Supermarket", "Date", "Product", "Price", "Quantity", "Line total")
	if err != nil {
		return err
	}
	for _, c := range d.Carts {
		row := carts.AddRow()
		row.AddCell().SetString(c.ID)
		row.AddCell().SetString(c.Supermarket)
		row.AddCell().SetDateTime(c.Date)
		row.AddCell().SetInt(len(c.Items))
		row.AddCell().SetFloat(c.Total)

		for _, it := range c.Items {
			row := items.AddRow()
			row.AddCell().SetString(c.ID)
			row.AddCell().SetString(c.Supermarket)
			row.AddCell().SetDateTime(c.Date)
			row.AddCell().SetString(it.Name)
			row.AddCell().SetFloat(it.Price)
			row.AddCell().SetInt(it.Quantity)
			row.AddCell().SetFloat(it.LineTotal().InexactFloat64())
		}
	}

	comparisons, err := addSheet(file, SheetComparisons, "Cart", "Supermarket", "Date", "Calculated", "Charged", "Difference", "Matches")
	if err != nil {
		return err
	}
	for _, c := range d.Comparisons {
		row := comparisons.AddRow()
		row.AddCell().SetString(c.CartID)
		row.AddCell().SetString(c.Supermarket)
		row.AddCell().SetDateTime(c.Date)
		row.AddCell().SetFloat(c.CalculatedTotal)
		row.AddCell().SetFloat(c.ChargedTotal)
		row.AddCell().SetFloat(c.Difference)
		row.AddCell().SetBool(c.Matches)
	}

	prices, err := addSheet(file, SheetPrices, "Product", "Supermarket", "Latest price", "Best supermarket", "Potential savings", "Difference %")
	if err != nil {
		return err
	}
	for _, p := range d.Prices {
		for _, sp := range p.Prices {
			row := prices.AddRow()
			row.AddCell().SetString(p.Name)
			row.AddCell().SetString(sp.Supermarket)
			row.AddCell().SetFloat(sp.Price)
			row.AddCell().SetString(p.BestSupermarket)
			row.AddCell().SetFloat(p.PotentialSavings)
			row.AddCell().SetFloat(p.PriceDifferencePercent)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func addSheet(file *xlsx.File, name string, headers ...string) (*xlsx.Sheet, error) {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return nil, fmt.Errorf("adding sheet %s: %w", name, err)
	}
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
	return sheet, nil
}
