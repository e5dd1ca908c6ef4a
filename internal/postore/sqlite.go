// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package postore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// Amounts are stored as decimal strings so that a round trip through the
// database is exact.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		po_number TEXT NOT NULL UNIQUE,
		supplier TEXT NOT NULL,
		total TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS po_line_items (
		po_number TEXT NOT NULL REFERENCES purchase_orders(po_number) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity TEXT NOT NULL,
		item_code TEXT,
		PRIMARY KEY (po_number, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_po_supplier ON purchase_orders(supplier)`,
}

// ImportSummary holds counts from one ImportFile run.
type ImportSummary struct {
	Imported int
	Updated  int
}

// Total returns the number of purchase orders written.
func (s ImportSummary) Total() int {
	return s.Imported + s.Updated
}

// ImportFile reads a JSON or YAML purchase-order document and writes its
// records into the SQLite database at dbPath, creating the database and
// schema when needed. Records already present (same po_number) are
// replaced, line items included. The whole import is one transaction.
func ImportFile(ctx context.Context, srcPath, dbPath string, w io.Writer) (ImportSummary, error) {
	orders, err := readDocument(srcPath)
	if err != nil {
		return ImportSummary{}, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return ImportSummary{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return ImportSummary{}, fmt.Errorf("creating schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var summary ImportSummary
	for _, po := range orders {
		existed, err := upsertOrder(ctx, tx, po)
		if err != nil {
			return ImportSummary{}, fmt.Errorf("importing %s: %w", po.PONumber, err)
		}
		if existed {
			fmt.Fprintf(w, "updated  %s (%d lines)\n", po.PONumber, len(po.LineItems))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "imported %s (%d lines)\n", po.PONumber, len(po.LineItems))
			summary.Imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportSummary{}, fmt.Errorf("committing import: %w", err)
	}
	return summary, nil
}

func upsertOrder(ctx context.Context, tx *sql.Tx, po types.PurchaseOrder) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM purchase_orders WHERE po_number = ?`, po.PONumber,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("checking existing record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_orders (po_number, supplier, total) VALUES (?, ?, ?)
		ON CONFLICT(po_number) DO UPDATE SET supplier = excluded.supplier, total = excluded.total`,
		po.PONumber, po.Supplier, po.Total.String(),
	); err != nil {
		return false, fmt.Errorf("writing order: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM po_line_items WHERE po_number = ?`, po.PONumber,
	); err != nil {
		return false, fmt.Errorf("clearing line items: %w", err)
	}

	for i, l := range po.LineItems {
		var itemCode sql.NullString
		if l.ItemCode != "" {
			itemCode = sql.NullString{String: l.ItemCode, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO po_line_items (po_number, position, description, unit_price, quantity, item_code)
			VALUES (?, ?, ?, ?, ?, ?)`,
			po.PONumber, i, l.Description, l.UnitPrice.String(), l.Quantity.String(), itemCode,
		); err != nil {
			return false, fmt.Errorf("writing line %d: %w", i, err)
		}
	}

	return count > 0, nil
}

// readDatabase loads every purchase order from a database written by
// ImportFile, in insertion order. The database is opened read-only and is
// never created.
func readDatabase(path string) ([]types.PurchaseOrder, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT po_number, supplier, total FROM purchase_orders ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []types.PurchaseOrder
	index := make(map[string]int)
	for rows.Next() {
		var po types.PurchaseOrder
		var total string
		if err := rows.Scan(&po.PONumber, &po.Supplier, &total); err != nil {
			return nil, fmt.Errorf("scanning purchase order: %w", err)
		}
		if po.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("%s: bad total %q: %w", po.PONumber, total, err)
		}
		po.LineItems = []types.POLineItem{}
		index[po.PONumber] = len(orders)
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purchase orders: %w", err)
	}

	lines, err := db.Query(`SELECT po_number, description, unit_price, quantity, item_code
		FROM po_line_items ORDER BY po_number, position`)
	if err != nil {
		return nil, fmt.Errorf("querying line items: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var (
			poNumber, unitPrice, quantity string
			itemCode                      sql.NullString
			l                             types.POLineItem
		)
		if err := lines.Scan(&poNumber, &l.Description, &unitPrice, &quantity, &itemCode); err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}
		if l.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("%s: bad unit_price %q: %w", poNumber, unitPrice, err)
		}
		if l.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("%s: bad quantity %q: %w", poNumber, quantity, err)
		}
		l.ItemCode = itemCode.String

		i, ok := index[poNumber]
		if !ok {
			continue
		}
		orders[i].LineItems = append(orders[i].LineItems, l)
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("iterating line items: %w", err)
	}

	return orders, nil
}
