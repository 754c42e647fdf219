package service

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
)

// CSVHeader is the fixed header row of an order export.
var CSVHeader = []string{
	"Order Number", "Customer Name", "Order Date", "Country",
	"Warehouse", "Total Items", "Status",
}

// CSVExport is a rendered order export ready to be served as a download.
type CSVExport struct {
	Filename string
	Rows     int
	Data     []byte
}

// ExportFilename names an export taken on the calendar day of t.
func ExportFilename(t time.Time) string {
	return "orders-export-" + domain.FormatDate(t) + ".csv"
}

// EncodeOrdersCSV writes the header and one row per order. Fields with
// commas, quotes or newlines are quoted. The output has no trailing newline.
func EncodeOrdersCSV(orders []*domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeader); err != nil {
		return nil, err
	}
	for _, o := range orders {
		record := []string{
			o.OrderNumber,
			o.CustomerName,
			domain.FormatDate(o.OrderDate),
			o.Country,
			o.AllocatedWarehouse,
			strconv.Itoa(o.TotalItems()),
			string(o.Status),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
