// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package postore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// document is the on-disk layout of a purchase-order file.
type document struct {
	PurchaseOrders *[]poRecord `json:"purchase_orders" yaml:"purchase_orders"`
}

type poRecord struct {
	PONumber  string       `json:"po_number" yaml:"po_number"`
	Supplier  string       `json:"supplier" yaml:"supplier"`
	Total     *float64     `json:"total" yaml:"total"`
	LineItems []lineRecord `json:"line_items" yaml:"line_items"`
}

type lineRecord struct {
	Description string  `json:"description" yaml:"description"`
	UnitPrice   float64 `json:"unit_price" yaml:"unit_price"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	ItemCode    string  `json:"item_code,omitempty" yaml:"item_code,omitempty"`
}

// readDocument parses a JSON or YAML purchase-order document.
func readDocument(path string) ([]types.PurchaseOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return parseDocument(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

func parseDocument(data []byte, isJSON bool) ([]types.PurchaseOrder, error) {
	var doc document
	if isJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	if doc.PurchaseOrders == nil {
		return nil, fmt.Errorf("missing top-level purchase_orders key")
	}

	orders := make([]types.PurchaseOrder, 0, len(*doc.PurchaseOrders))
	for i, rec := range *doc.PurchaseOrders {
		po, err := rec.toPurchaseOrder()
		if err != nil {
			return nil, fmt.Errorf("purchase order %d: %w", i, err)
		}
		orders = append(orders, po)
	}
	return orders, nil
}

func (r poRecord) toPurchaseOrder() (types.PurchaseOrder, error) {
	if r.PONumber == "" {
		return types.PurchaseOrder{}, fmt.Errorf("missing po_number")
	}
	if r.Total == nil {
		return types.PurchaseOrder{}, fmt.Errorf("%s: missing total", r.PONumber)
	}

	po := types.PurchaseOrder{
		PONumber:  r.PONumber,
		Supplier:  r.Supplier,
		Total:     decimal.NewFromFloat(*r.Total),
		LineItems: make([]types.POLineItem, 0, len(r.LineItems)),
	}
	for _, l := range r.LineItems {
		po.LineItems = append(po.LineItems, types.POLineItem{
			Description: l.Description,
			UnitPrice:   decimal.NewFromFloat(l.UnitPrice),
			Quantity:    decimal.NewFromFloat(l.Quantity),
			ItemCode:    l.ItemCode,
		})
	}
	return po, nil
}

func fromPurchaseOrder(po types.PurchaseOrder) poRecord {
	total := po.Total.InexactFloat64()
	rec := poRecord{
		PONumber:  po.PONumber,
		Supplier:  po.Supplier,
		Total:     &total,
		LineItems: make([]lineRecord, 0, len(po.LineItems)),
	}
	for _, l := range po.LineItems {
		rec.LineItems = append(rec.LineItems, lineRecord{
			Description: l.Description,
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			Quantity:    l.Quantity.InexactFloat64(),
			ItemCode:    l.ItemCode,
		})
	}
	return rec
}

// Export format names accepted by Export.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export serialises the store in the same document layout Load reads.
func (s *Store) Export(format string) ([]byte, error) {
	records := make([]poRecord, 0, len(s.orders))
	for _, po := range s.orders {
		records = append(records, fromPurchaseOrder(po))
	}
	doc := document{PurchaseOrders: &records}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML, "":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}
