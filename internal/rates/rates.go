// Package rates provides the currency-rate lookup capability: given a source
// currency code, produce its USD conversion rate.
package rates

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/pkg/anthropic"
)

// Source resolves a currency code to its USD conversion rate.
type Source interface {
	USDRate(ctx context.Context, currency string) (float64, error)
}

const rateSystemPrompt = `Recibes el código de una moneda y devuelves su tipo de cambio a USD como número flotante, el más reciente al que tengas acceso.
Responde únicamente en formato JSON, sin texto adicional, por ejemplo: {"moneda": "PEN", "usd_rate": 0.27}
Aunque no puedas obtener el valor más reciente, no lo menciones: responde siempre en ese formato con el último usd_rate que conozcas.`

// LLMSource implements Source by asking a Claude model for the rate.
type LLMSource struct {
	client anthropic.Client
	model  string
}

// NewLLMSource builds a rate source backed by the given Anthropic client.
func NewLLMSource(client anthropic.Client, modelID string) *LLMSource {
	return &LLMSource{client: client, model: modelID}
}

// USDRate asks the model for the currency's USD rate and parses the first
// JSON object out of the reply.
func (s *LLMSource) USDRate(ctx context.Context, currency string) (float64, error) {
	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: 256,
		System:    rateSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: currency},
		},
	})
	if err != nil {
		return 0, eris.Wrapf(err, "rates: rate lookup for %s", currency)
	}

	rate, err := parseRate(resp.Text())
	if err != nil {
		return 0, eris.Wrapf(err, "rates: rate lookup for %s", currency)
	}
	return rate, nil
}

// parseRate extracts the usd_rate field from the first JSON object in text.
func parseRate(text string) (float64, error) {
	candidate := firstObject(text)
	if candidate == "" {
		candidate = strings.TrimSpace(text)
	}

	var payload struct {
		USDRate *float64 `json:"usd_rate"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return 0, eris.Wrap(err, "parse rate reply")
	}
	if payload.USDRate == nil {
		return 0, eris.New("rate reply carries no usd_rate")
	}
	return *payload.USDRate, nil
}

// firstObject returns the first {...} span in text, or empty.
func firstObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
