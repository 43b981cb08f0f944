package feed

// Logical field names an administrator maps to raw XML tags
const (
	FieldSKU           = "sku"
	FieldNameEl        = "nameEl"
	FieldNameEn        = "nameEn"
	FieldPrice         = "price"
	FieldStock         = "stock"
	FieldDescriptionEl = "descriptionEl"
	FieldDescriptionEn = "descriptionEn"
	FieldBrand         = "brand"
	FieldWeight        = "weight"
	FieldImage         = "image"
	FieldCategory      = "category"
)

// LogicalFields lists every mappable field in display order
var LogicalFields = []string{
	FieldSKU,
	FieldNameEl,
	FieldNameEn,
	FieldPrice,
	FieldStock,
	FieldDescriptionEl,
	FieldDescriptionEn,
	FieldBrand,
	FieldWeight,
	FieldImage,
	FieldCategory,
}

// IsLogicalField reports whether name is a known logical field
func IsLogicalField(name string) bool {
	for _, f := range LogicalFields {
		if f == name {
			return true
		}
	}
	return false
}

// FieldMapping maps logical field names to raw XML tag names
type FieldMapping map[string]string

// Tag returns the raw tag mapped to a logical field. An empty tag counts as unmapped.
func (m FieldMapping) Tag(field string) (string, bool) {
	tag, ok := m[field]
	if !ok || tag == "" {
		return "", false
	}
	return tag, true
}

// Clone returns a copy of the mapping
func (m FieldMapping) Clone() FieldMapping {
	out := make(FieldMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
