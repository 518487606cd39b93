package matching

import (
	"context"
	"errors"
	"strings"

	"github.com/tcgcompanion/backend/pkg/gemini"
)

// CardMetadata is the raw identification read off a card photo. Unknown
// fields are the zero value, never null.
type CardMetadata struct {
	Name       string `json:"name"`
	TcgLocalID string `json:"tcg_local_id"`
	SetYear    int    `json:"set_year"`
}

const extractorInstruction = `You identify trading cards from photographs.
Read the card and report:
- name: the card name printed at the top of the card.
- tcg_local_id: the collector number printed in the bottom corner, usually in
  N/total notation such as 58/102. Report the full printed text.
- set_year: the four digit copyright year printed along the bottom edge of
  the card.
Use an empty string or 0 for anything you cannot read confidently.`

var extractorSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":         map[string]any{"type": "string"},
		"tcg_local_id": map[string]any{"type": "string"},
		"set_year":     map[string]any{"type": "integer"},
	},
	"required": []string{"name", "tcg_local_id", "set_year"},
}

// Extractor reads card metadata from an image via the AI model.
type Extractor struct {
	client *gemini.Client
}

// NewExtractor builds the extraction stage.
func NewExtractor(client *gemini.Client) (*Extractor, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	return &Extractor{client: client}, nil
}

// Extract runs one AI call and normalizes the result. No persistence, no
// side effects beyond the call.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (CardMetadata, error) {
	meta, err := gemini.GenerateObject[CardMetadata](ctx, e.client, gemini.Request{
		SystemInstruction: extractorInstruction,
		Prompt:            "Identify this card.",
		Image:             &gemini.InlineImage{MIMEType: mimeType, Data: image},
		Schema:            extractorSchema,
	})
	if err != nil {
		return CardMetadata{}, classifyAIError("extract", err)
	}

	meta.Name = strings.TrimSpace(meta.Name)
	meta.TcgLocalID = NormalizeLocalID(meta.TcgLocalID)
	return meta, nil
}

// NormalizeLocalID reduces a printed collector number to the part before the
// first slash: "58/102" becomes "58".
func NormalizeLocalID(raw string) string {
	head, _, _ := strings.Cut(raw, "/")
	return strings.TrimSpace(head)
}

// classifyAIError tags model call failures: malformed output is terminal,
// everything else is retried under at-least-once delivery.
func classifyAIError(stage string, err error) *StageError {
	if errors.Is(err, gemini.ErrInvalidResponse) {
		return wrapStageError(stage, KindSchemaInvalid, err, "model output failed schema validation")
	}
	return wrapStageError(stage, KindTransient, err, "model call failed")
}
