// Package feedapp contains the supplier feed application services: admin
// CRUD, the catalog reconciler, the due-feed runner, document preview and
// the image backfill.
package feedapp

import (
	"errors"
	"html"
	"strings"
	"unicode"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// ErrMissingSKU is reported for records without a supplier SKU
var ErrMissingSKU = errors.New("Skipped product with no SKU")

// FieldValue returns the trimmed text of the tag mapped to field. A missing
// mapping, a missing tag and an empty value all report false. Sequences
// contribute their first non-empty scalar item.
//
// The tag is first taken as a literal element name, since names such as
// price.vat are legal XML, and only then as a dotted path into nested elements.
func FieldValue(mapping feed.FieldMapping, record xmltree.Value, field string) (string, bool) {
	tag, ok := mapping.Tag(field)
	if !ok {
		return "", false
	}
	node, ok := record.Field(tag)
	if !ok {
		if node, ok = record.Lookup(tag); !ok {
			return "", false
		}
	}
	return textOf(node)
}

func textOf(v xmltree.Value) (string, bool) {
	if items, ok := v.Items(); ok {
		for _, item := range items {
			if s, ok := textOf(item); ok {
				return s, true
			}
		}
		return "", false
	}
	s, ok := v.Text()
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// MappedRecord is the typed view of one supplier record. Price is the
// supplier price before markup.
type MappedRecord struct {
	SupplierSKU   string
	NameEl        string
	NameEn        string
	DescriptionEl *string
	DescriptionEn *string
	Price         decimal.Decimal
	Stock         int
	Brand         *string
	Weight        *decimal.Decimal
	ImageURL      string
	CategoryName  string
}

// Mapper turns raw records into MappedRecords
type Mapper struct {
	policy *bluemonday.Policy
}

// NewMapper creates a Mapper that sanitizes descriptions with the UGC policy
func NewMapper() *Mapper {
	return &Mapper{policy: bluemonday.UGCPolicy()}
}

// Map applies the field mapping to a record. Only a missing SKU fails.
func (m *Mapper) Map(mapping feed.FieldMapping, record xmltree.Value) (MappedRecord, error) {
	get := func(field string) (string, bool) {
		return FieldValue(mapping, record, field)
	}

	sku, ok := get(feed.FieldSKU)
	if !ok {
		return MappedRecord{}, ErrMissingSKU
	}

	out := MappedRecord{SupplierSKU: sku, NameEl: sku}
	if v, ok := get(feed.FieldNameEl); ok {
		out.NameEl = v
	}
	out.NameEn = out.NameEl
	if v, ok := get(feed.FieldNameEn); ok {
		out.NameEn = v
	}
	if v, ok := get(feed.FieldPrice); ok {
		if d, ok := ParseDecimal(v); ok {
			out.Price = d
		}
	}
	if v, ok := get(feed.FieldStock); ok {
		out.Stock = ParseStock(v)
	}
	if v, ok := get(feed.FieldWeight); ok {
		if d, ok := ParseDecimal(v); ok && !d.IsNegative() {
			out.Weight = &d
		}
	}
	if v, ok := get(feed.FieldDescriptionEl); ok {
		out.DescriptionEl = m.sanitize(v)
	}
	if v, ok := get(feed.FieldDescriptionEn); ok {
		out.DescriptionEn = m.sanitize(v)
	}
	if v, ok := get(feed.FieldBrand); ok {
		out.Brand = &v
	}
	out.ImageURL, _ = get(feed.FieldImage)
	out.CategoryName, _ = get(feed.FieldCategory)
	return out, nil
}

// sanitize decodes entities left escaped by the supplier and strips unsafe markup
func (m *Mapper) sanitize(raw string) *string {
	clean := strings.TrimSpace(m.policy.Sanitize(html.UnescapeString(raw)))
	if clean == "" {
		return nil
	}
	return &clean
}

// ParseDecimal reads a supplier number. Grouping separators are tolerated:
// with both ',' and '.' present the last one is the decimal separator, a
// lone ',' is a decimal comma, and a separator repeated more than once
// groups thousands. Other characters (currency symbols, spaces) are ignored.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseStock reads a stock quantity, truncating fractions. Invalid or
// negative values count as zero.
func ParseStock(raw string) int {
	d, ok := ParseDecimal(raw)
	if !ok || d.IsNegative() {
		return 0
	}
	return int(d.IntPart())
}
