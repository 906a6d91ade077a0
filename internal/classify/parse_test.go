package classify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-data/procura-cli/internal/model"
	"github.com/andes-data/procura-cli/pkg/anthropic"
)

func TestExtractJSONList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			"bare list",
			`[{"categoria":"salud","presupuesto":100}]`,
			`[{"categoria":"salud","presupuesto":100}]`,
			true,
		},
		{
			"fenced list",
			"```json\n[{\"categoria\":\"otro\",\"presupuesto\":5}]\n```",
			`[{"categoria":"otro","presupuesto":5}]`,
			true,
		},
		{
			"list wrapped in prose",
			"Aquí está la clasificación:\n[{\"categoria\":\"educación\",\"presupuesto\":50}]\nEspero que sirva.",
			`[{"categoria":"educación","presupuesto":50}]`,
			true,
		},
		{"no list at all", "no pude clasificar los registros", "", false},
		{"broken json", `[{"categoria":"salud",`, "", false},
		{"empty list", "[]", "[]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONList(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// canned implements anthropic.Client with a fixed response body.
type canned struct {
	text string
	err  error
	last anthropic.MessageRequest
}

func (c *canned) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.last = req
	if c.err != nil {
		return nil, c.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: c.text}},
	}, nil
}

func TestLLMClassifier_Classify(t *testing.T) {
	client := &canned{text: "```json\n[{\"categoria\":\"salud\",\"presupuesto\":1000},{\"categoria\":\"otro\",\"presupuesto\":7}]\n```"}
	c := NewLLMClassifier(client, "claude-haiku-4-5-20251001", 0)

	records := []model.CanonicalRecord{{"id": "a"}, {"id": "b"}}
	got, err := c.Classify(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.CategorySalud, got[0].Categoria)
	assert.Equal(t, 1000.0, *got[0].Presupuesto)

	// The batch itself travels as the user message.
	var sent []model.CanonicalRecord
	require.NoError(t, json.Unmarshal([]byte(client.last.Messages[0].Content), &sent))
	assert.Len(t, sent, 2)
	assert.NotEmpty(t, client.last.System)
}

func TestLLMClassifier_UnparseableOutput(t *testing.T) {
	client := &canned{text: "lo siento, no puedo clasificar esto"}
	c := NewLLMClassifier(client, "claude-haiku-4-5-20251001", 0)

	_, err := c.Classify(context.Background(), []model.CanonicalRecord{{"id": "a"}})
	require.Error(t, err)
}

func TestLLMClassifier_CallError(t *testing.T) {
	client := &canned{err: assert.AnError}
	c := NewLLMClassifier(client, "claude-haiku-4-5-20251001", 0)

	_, err := c.Classify(context.Background(), []model.CanonicalRecord{{"id": "a"}})
	require.Error(t, err)
}
