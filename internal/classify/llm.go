package classify

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/internal/model"
	"github.com/andes-data/procura-cli/pkg/anthropic"
)

const classifierSystemPrompt = `Recibes un lote de registros de compras públicas en formato JSON.
Clasifica cada registro en una de las siguientes categorías: salud, educación, infraestructura u otro (siempre en minúsculas).
Devuelve únicamente una lista JSON donde cada elemento tiene la estructura:
{"categoria": "<salud|educación|infraestructura|otro>", "presupuesto": <valor del presupuesto del registro>}
No uses bloques de triple backtick ni texto adicional, solo la lista JSON.`

// LLMClassifier implements Classifier by asking a Claude model to categorize
// each record of a batch.
type LLMClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewLLMClassifier builds a classifier backed by the given Anthropic client.
func NewLLMClassifier(client anthropic.Client, modelID string, maxTokens int64) *LLMClassifier {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &LLMClassifier{client: client, model: modelID, maxTokens: maxTokens}
}

// Classify submits one batch and parses the returned JSON list. The model may
// wrap the list in prose or fences; ExtractJSONList recovers the first
// well-formed list substring before giving up.
func (c *LLMClassifier) Classify(ctx context.Context, records []model.CanonicalRecord) ([]model.ClassifiedRecord, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, eris.Wrap(err, "classify: marshal batch")
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    classifierSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: string(payload)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classify: classifier call")
	}

	list, ok := ExtractJSONList(resp.Text())
	if !ok {
		return nil, eris.Errorf("classify: no JSON list in classifier output")
	}

	var classified []model.ClassifiedRecord
	if err := json.Unmarshal([]byte(list), &classified); err != nil {
		return nil, eris.Wrap(err, "classify: decode classifier output")
	}
	return classified, nil
}
