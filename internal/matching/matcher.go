package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/gemini"
)

const matcherInstruction = `You identify trading cards from photographs.
You are given a photograph of a card and a list of catalog candidates as
JSON. Compare the photograph against every candidate and pick the single
best match. You MUST return the id of one of the provided candidates.`

var matcherSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{"type": "string"},
	},
	"required": []string{"id"},
}

type matchResult struct {
	ID string `json:"id"`
}

type candidatePrompt struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TcgLocalID string `json:"tcg_local_id"`
	SetName    string `json:"set_name"`
	SetYear    *int   `json:"set_year"`
}

// Matcher picks the best catalog candidate for a card photo via the AI model.
type Matcher struct {
	client *gemini.Client
}

// NewMatcher builds the disambiguation stage.
func NewMatcher(client *gemini.Client) (*Matcher, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	return &Matcher{client: client}, nil
}

// Match asks the model to pick one candidate and verifies the answer is a
// member of the candidate set. An id outside the set is a hallucination and
// a hard failure, never coerced to a fallback candidate.
func (m *Matcher) Match(ctx context.Context, image []byte, mimeType string, candidates []models.RefCard) (models.RefCard, error) {
	if len(candidates) == 0 {
		return models.RefCard{}, newStageError("match", KindNoCandidates, "no candidates to disambiguate")
	}

	prompts := make([]candidatePrompt, len(candidates))
	byID := make(map[uuid.UUID]models.RefCard, len(candidates))
	for i, c := range candidates {
		prompts[i] = candidatePrompt{
			ID:         c.ID.String(),
			Name:       c.Name,
			TcgLocalID: c.TcgLocalID,
			SetName:    c.SetName,
			SetYear:    c.SetYear,
		}
		byID[c.ID] = c
	}

	serialized, err := json.Marshal(prompts)
	if err != nil {
		return models.RefCard{}, wrapStageError("match", KindSchemaInvalid, err, "serialize candidates")
	}

	result, err := gemini.GenerateObject[matchResult](ctx, m.client, gemini.Request{
		SystemInstruction: matcherInstruction,
		Prompt:            fmt.Sprintf("Candidates:\n%s", serialized),
		Image:             &gemini.InlineImage{MIMEType: mimeType, Data: image},
		Schema:            matcherSchema,
	})
	if err != nil {
		return models.RefCard{}, classifyAIError("match", err)
	}

	chosenID, err := uuid.Parse(result.ID)
	if err != nil {
		return models.RefCard{}, wrapStageError("match", KindHallucination, err,
			fmt.Sprintf("model returned unparseable candidate id %q", result.ID))
	}

	winner, ok := byID[chosenID]
	if !ok {
		return models.RefCard{}, newStageError("match", KindHallucination,
			fmt.Sprintf("model returned id %s outside the candidate set", chosenID))
	}
	return winner, nil
}
