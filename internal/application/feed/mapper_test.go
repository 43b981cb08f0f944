package feedapp

import (
	"testing"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRecord(t *testing.T, xml string) xmltree.Value {
	t.Helper()
	root, err := xmltree.Parse([]byte("<products>"+xml+"</products>"), "products.product")
	require.NoError(t, err)
	records, ok := xmltree.Records(root, "products.product")
	require.True(t, ok)
	require.Len(t, records, 1)
	return records[0]
}

func TestFieldValue(t *testing.T) {
	rec := parseRecord(t, `<product id="77"><code> X-1 </code><empty></empty>`+
		`<img>https://a/1.jpg</img><img>https://a/2.jpg</img>`+
		`<name lang="el">Όνομα</name><dims><w>2</w></dims></product>`)
	mapping := feed.FieldMapping{
		feed.FieldSKU:    "code",
		feed.FieldNameEl: "name",
		feed.FieldNameEn: "",
		feed.FieldImage:  "img",
		feed.FieldBrand:  "empty",
		feed.FieldWeight: "dims.w",
		feed.FieldStock:  "@_id",
	}

	tests := []struct {
		field string
		want  string
		ok    bool
	}{
		{feed.FieldSKU, "X-1", true},
		{feed.FieldNameEl, "Όνομα", true},
		{feed.FieldNameEn, "", false},
		{feed.FieldImage, "https://a/1.jpg", true},
		{feed.FieldBrand, "", false},
		{feed.FieldWeight, "2", true},
		{feed.FieldStock, "77", true},
		{feed.FieldPrice, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := FieldValue(mapping, rec, tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapper_Defaults(t *testing.T) {
	m := NewMapper()
	rec := parseRecord(t, `<product><code>S-9</code></product>`)

	got, err := m.Map(feed.FieldMapping{feed.FieldSKU: "code", feed.FieldPrice: "price"}, rec)
	require.NoError(t, err)

	assert.Equal(t, "S-9", got.SupplierSKU)
	assert.Equal(t, "S-9", got.NameEl)
	assert.Equal(t, "S-9", got.NameEn)
	assert.True(t, got.Price.IsZero())
	assert.Zero(t, got.Stock)
	assert.Nil(t, got.Weight)
	assert.Nil(t, got.Brand)
	assert.Nil(t, got.DescriptionEl)
	assert.Empty(t, got.ImageURL)
	assert.Empty(t, got.CategoryName)
}

func TestMapper_DottedElementNames(t *testing.T) {
	rec := parseRecord(t, `<product><code.supplier>S-1</code.supplier><price.vat>12.50</price.vat>`+
		`<dims><w>2</w></dims></product>`)

	got, err := NewMapper().Map(feed.FieldMapping{
		feed.FieldSKU:    "code.supplier",
		feed.FieldPrice:  "price.vat",
		feed.FieldWeight: "dims.w",
	}, rec)
	require.NoError(t, err)

	assert.Equal(t, "S-1", got.SupplierSKU)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.50")), "got %s", got.Price)
	require.NotNil(t, got.Weight)
	assert.True(t, got.Weight.Equal(decimal.NewFromInt(2)))
}

func TestMapper_MissingSKU(t *testing.T) {
	rec := parseRecord(t, `<product><title>x</title></product>`)

	_, err := NewMapper().Map(feed.FieldMapping{feed.FieldNameEl: "title"}, rec)

	assert.ErrorIs(t, err, ErrMissingSKU)
}

func TestMapper_SanitizesDescriptions(t *testing.T) {
	rec := parseRecord(t, `<product><code>1</code>`+
		`<d_el><![CDATA[<b onclick="x()">Bold</b> &amp;amp; more]]></d_el>`+
		`<d_en>&lt;script&gt;evil()&lt;/script&gt;</d_en></product>`)
	mapping := feed.FieldMapping{
		feed.FieldSKU:           "code",
		feed.FieldDescriptionEl: "d_el",
		feed.FieldDescriptionEn: "d_en",
	}

	got, err := NewMapper().Map(mapping, rec)
	require.NoError(t, err)

	require.NotNil(t, got.DescriptionEl)
	assert.Equal(t, "<b>Bold</b> &amp; more", *got.DescriptionEl)
	assert.Nil(t, got.DescriptionEn, "nothing left after sanitizing")
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"19.995", "19.995", true},
		{"19,99", "19.99", true},
		{"1.234,50", "1234.5", true},
		{"1,234.50", "1234.5", true},
		{"1.234.567", "1234567", true},
		{"1,234,567", "1234567", true},
		{"€ 12,00", "12", true},
		{"12.50 EUR", "12.5", true},
		{"-3", "-3", true},
		{"", "0", false},
		{"n/a", "0", false},
		{"1-2", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDecimal(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseStock(t *testing.T) {
	assert.Equal(t, 12, ParseStock("12"))
	assert.Equal(t, 12, ParseStock("12.7"))
	assert.Equal(t, 1500, ParseStock("1.500,00"))
	assert.Equal(t, 0, ParseStock("-4"))
	assert.Equal(t, 0, ParseStock("many"))
}
