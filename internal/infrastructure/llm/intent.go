package llm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"fintrax/internal/domain/assistant"
)

// looseString accepts a JSON string, number, boolean or null. Models are
// not consistent about quoting amounts and limits.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(data)
	return nil
}

func (s looseString) bool() bool {
	b, err := strconv.ParseBool(strings.TrimSpace(string(s)))
	return err == nil && b
}

type wireIntent struct {
	Action       looseString `json:"action"`
	Category     looseString `json:"categoria"`
	Kind         looseString `json:"tipo"`
	Amount       looseString `json:"monto"`
	Description  looseString `json:"descripcion"`
	GoalName     looseString `json:"nombre_meta"`
	GoalAmount   looseString `json:"monto_meta"`
	Limit        looseString `json:"limit"`
	RequiresData looseString `json:"requiereSQL"`
}

// ParseClassification reads a classifier reply. Only a reply that is
// exactly one JSON object becomes an intent.
func ParseClassification(text string) *assistant.Classification {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return &assistant.Classification{Text: text}
	}

	var w wireIntent
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return &assistant.Classification{Text: text}
	}

	return &assistant.Classification{
		Text: text,
		Intent: &assistant.Intent{
			Action:       assistant.Action(strings.TrimSpace(string(w.Action))),
			Category:     string(w.Category),
			Kind:         string(w.Kind),
			Amount:       string(w.Amount),
			Description:  string(w.Description),
			GoalName:     string(w.GoalName),
			GoalAmount:   string(w.GoalAmount),
			Limit:        string(w.Limit),
			RequiresData: w.RequiresData.bool(),
		},
	}
}
