// Package model defines the canonical procurement record schema and the
// shapes shared across the pipeline stages.
package model

// Kind is the declared semantic type of a canonical field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
)

// Field is one column of the canonical schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema lists every canonical field in output order. All country datasets,
// whatever their source shape, are normalized into exactly these fields.
var Schema = []Field{
	{Name: "id", Kind: KindString},
	{Name: "entidad", Kind: KindString},
	{Name: "objeto", Kind: KindString},
	{Name: "presupuesto", Kind: KindFloat},
	{Name: "moneda", Kind: KindString},
	{Name: "lugar", Kind: KindString},
	{Name: "fecha_conv", Kind: KindString},
	{Name: "fecha_adj", Kind: KindString},
	{Name: "oferentes", Kind: KindInt},
	{Name: "proveedor", Kind: KindString},
	{Name: "valor_adj", Kind: KindFloat},
	{Name: "justificacion", Kind: KindString},
}

// FieldKind returns the declared kind for a canonical field name.
func FieldKind(name string) (Kind, bool) {
	for _, f := range Schema {
		if f.Name == name {
			return f.Kind, true
		}
	}
	return "", false
}

// CanonicalRecord is one normalized procurement process. It is a map rather
// than a struct because coercion failures keep the raw resolved value, so a
// declared-float field may legitimately hold a string.
type CanonicalRecord map[string]any

// Budget categories assigned by the classifier. Reporting covers the first
// three; CategoryOtro is a valid classifier output that aggregation drops.
const (
	CategorySalud           = "salud"
	CategoryEducacion       = "educación"
	CategoryInfraestructura = "infraestructura"
	CategoryOtro            = "otro"
)

// Categories are the categories that participate in aggregation.
var Categories = []string{CategorySalud, CategoryEducacion, CategoryInfraestructura}

// ClassifiedRecord is the classifier's verdict for one canonical record:
// a category label plus the budget amount in source currency.
type ClassifiedRecord struct {
	Categoria   string   `json:"categoria"`
	Presupuesto *float64 `json:"presupuesto"`
}

// Totals maps category → summed budget for one country.
type Totals map[string]float64

// Analysis is the cross-country artifact: country → USD totals per category.
type Analysis map[string]Totals
