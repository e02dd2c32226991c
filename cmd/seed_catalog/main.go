// seed_catalog genera un script SQL para poblar categorías y productos a partir de un CSV.
//
// Columnas: sku,name,category,price[,stock[,description]]. La primera fila es la cabecera.
// El precio va en unidades ("1500.50"); el stock inicial, si lo hay, entra como registro
// de tipo restock y suma a products.quantity en la misma sentencia.
// Acepta UTF-8 o ISO-8859-1 (exportaciones de hojas de cálculo antiguas).
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalog.sql
package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/pkg/money"
)

type catalogRow struct {
	SKU         string
	Name        string
	Category    string
	PriceCents  int64
	Stock       int64
	Description string
}

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}

	rows, err := parseCatalog(decodeInput(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, filepath.Base(csvPath), rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d categorías, %d productos\n", outPath, len(categoriesOf(rows)), len(rows))
}

// decodeInput devuelve el contenido como UTF-8; si no lo es, lo trata como ISO-8859-1.
func decodeInput(raw []byte) io.Reader {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

// parseCatalog lee y valida las filas; la primera es la cabecera.
// Un SKU repetido tras normalizar es un error.
func parseCatalog(r io.Reader) ([]catalogRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("el CSV no tiene filas de datos")
	}

	seen := make(map[string]int)
	rows := make([]catalogRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 4 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos 4 columnas, hay %d", line, len(rec))
		}
		price, err := money.ParseCents(rec[3])
		if err != nil {
			return nil, fmt.Errorf("línea %d: precio %q: %w", line, rec[3], err)
		}
		row := catalogRow{
			Category:   ledger.NormalizeKey(rec[2]),
			PriceCents: price,
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			if row.Stock, err = strconv.ParseInt(strings.TrimSpace(rec[4]), 10, 64); err != nil {
				return nil, fmt.Errorf("línea %d: stock %q: %w", line, rec[4], err)
			}
		}
		if len(rec) > 5 {
			row.Description = strings.TrimSpace(rec[5])
		}

		p := &entity.Product{SKU: rec[0], Name: rec[1], PriceCents: price, Description: row.Description, Active: true}
		if err := ledger.ValidateProduct(p); err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row.SKU, row.Name = p.SKU, p.Name

		if prev, ok := seen[row.SKU]; ok {
			return nil, fmt.Errorf("línea %d: SKU %q repetido (línea %d)", line, row.SKU, prev)
		}
		seen[row.SKU] = line
		rows = append(rows, row)
	}
	return rows, nil
}

func categoriesOf(rows []catalogRow) []string {
	set := make(map[string]struct{})
	for _, r := range rows {
		if r.Category != "" {
			set[r.Category] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// writeSQL emite el script. El upsert de productos no toca quantity.
func writeSQL(w io.Writer, source string, rows []catalogRow) error {
	var b strings.Builder
	b.WriteString("-- Catálogo inicial de categorías y productos\n")
	fmt.Fprintf(&b, "-- Generado desde %s\n\n", source)

	cats := categoriesOf(rows)
	if len(cats) > 0 {
		b.WriteString("-- 1. Categorías\n")
		b.WriteString("INSERT INTO categories (name) VALUES\n")
		for i, c := range cats {
			sep := ","
			if i == len(cats)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "  (%s)%s\n", quote(c), sep)
		}
		b.WriteString("ON CONFLICT (name) DO NOTHING;\n\n")
	}

	b.WriteString("-- 2. Productos\n")
	for _, r := range rows {
		category := "NULL"
		if r.Category != "" {
			category = fmt.Sprintf("(SELECT id FROM categories WHERE name = %s)", quote(r.Category))
		}
		b.WriteString("INSERT INTO products (sku, name, description, price_cents, category_id)\n")
		fmt.Fprintf(&b, "VALUES (%s, %s, %s, %d, %s)\n", quote(r.SKU), quote(r.Name), quote(r.Description), r.PriceCents, category)
		b.WriteString("ON CONFLICT (sku) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,\n")
		b.WriteString("  price_cents = EXCLUDED.price_cents, category_id = EXCLUDED.category_id, updated_at = now();\n")
	}

	var stocked []catalogRow
	for _, r := range rows {
		if r.Stock != 0 {
			stocked = append(stocked, r)
		}
	}
	if len(stocked) > 0 {
		b.WriteString("\n-- 3. Stock inicial (registro + agregado)\n")
		for _, r := range stocked {
			b.WriteString("WITH p AS (SELECT id FROM products WHERE sku = " + quote(r.SKU) + "),\n")
			b.WriteString("     l AS (INSERT INTO inventory_logs (type, product_id, delta, note)\n")
			fmt.Fprintf(&b, "           SELECT 'restock', id, %d, 'Carga inicial de catálogo' FROM p RETURNING product_id, delta)\n", r.Stock)
			b.WriteString("UPDATE products SET quantity = quantity + l.delta, updated_at = now() FROM l WHERE products.id = l.product_id;\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
