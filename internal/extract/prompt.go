// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// extractionPromptTmpl is the instruction sent with every page image. It
// fixes the JSON shape the backends must return.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`Extract invoice data into JSON. Set missing PO to null.

Read the attached invoice page and respond with a single JSON object with these fields:
- invoice_number: the invoice number as printed (string)
- invoice_date: the invoice date as printed (string)
- supplier_name: the name of the company that issued the invoice (string)
- po_reference: the purchase order number quoted on the invoice, or null if there is none
- currency: ISO 4217 code; use "{{.Currency}}" if the invoice does not say
- line_items: array of objects with description (string), quantity, unit_price, line_total (numbers) and item_code (string or null)
- subtotal: the amount before tax (number)
- total_amount: the final amount payable (number)

Amounts are plain numbers without currency symbols or thousands separators. Do not include any text outside the JSON object.

Example response:
{"invoice_number": "INV-2024-017", "invoice_date": "12 March 2024", "supplier_name": "Acme Widgets Ltd", "po_reference": "PO-1001", "currency": "GBP", "line_items": [{"description": "Widget A", "quantity": 10, "unit_price": 10.00, "line_total": 100.00, "item_code": "WA-1"}], "subtotal": 100.00, "total_amount": 120.00}
`))

// renderPrompt executes the extraction prompt template.
func renderPrompt() (string, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, struct{ Currency string }{Currency: types.DefaultCurrency}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
