package httpserver

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/artfolio/internal/domain"
)

const exportSheet = "Sheet1"

var exportHeader = []any{"ID", "Title", "Category", "Year", "Date", "Medium", "Dimensions", "Price", "Available", "Featured", "Image"}

// writeCatalogXLSX writes one row per item in store order.
func writeCatalogXLSX(w io.Writer, items []domain.CatalogItem) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := exportHeader
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}
	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var year, price any = "", ""
		if it.Year != nil {
			year = *it.Year
		}
		if it.Price != nil {
			price = *it.Price
		}
		row := []any{it.ID, it.Title, string(it.Category), year, it.Date, it.Medium, it.Dimensions, price, it.Available, it.Featured, it.RawImage()}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
