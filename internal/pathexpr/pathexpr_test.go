package pathexpr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
	"ocid": "ocds-abc-001",
	"buyer": {"name": "ACME", "id": "b-1"},
	"awards": [
		{"value": {"amount": 1000.5, "currency": "COP"}, "suppliers": [{"name": "Proveedor SA"}]},
		{"value": {"amount": 25, "currency": "COP"}}
	],
	"tender": {"tenderers": [{"id": "t1"}, {"id": "t2"}, {"id": "t3"}], "numberOfTenderers": 3},
	"0": "zero-key"
}`

func sampleRecord(t *testing.T) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(sampleJSON), &rec))
	return rec
}

func TestResolve(t *testing.T) {
	rec := sampleRecord(t)

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"top-level key", "ocid", "ocds-abc-001"},
		{"nested key", "buyer.name", "ACME"},
		{"array index then keys", "awards[0].value.amount", 1000.5},
		{"second element", "awards[1].value.amount", 25.0},
		{"nested array", "awards[0].suppliers[0].name", "Proveedor SA"},
		{"len of sequence", "len(tender.tenderers)", 3},
		{"len of non-sequence", "len(buyer.name)", 0},
		{"len of missing path", "len(tender.lots)", 0},
		{"missing key", "seller.name", nil},
		{"missing nested key", "buyer.address.city", nil},
		{"index out of range", "awards[7].value", nil},
		{"index into non-container", "ocid[0]", nil},
		{"key lookup on array", "awards.value", nil},
		{"numeric key on object", "0", "zero-key"},
		{"repeated separators collapse", "buyer..name", "ACME"},
		{"bracket without dot", "awards[0]suppliers[0]name", "Proveedor SA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(rec, tt.expr))
		})
	}
}

func TestResolve_EmptyExpression(t *testing.T) {
	rec := sampleRecord(t)
	got := Resolve(rec, "")
	assert.Equal(t, rec["ocid"], got.(map[string]any)["ocid"])
}

func TestResolve_NilRecord(t *testing.T) {
	assert.Nil(t, Resolve(nil, "a.b"))
	assert.Equal(t, 0, Resolve(nil, "len(a)"))
}
