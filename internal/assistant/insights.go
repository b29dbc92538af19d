package assistant

import (
	"context"
	"encoding/json"
	"strings"
)

// MaxInsights caps how many insights one extraction yields.
const MaxInsights = 3

// Insight types.
const (
	InsightPositive = "positive"
	InsightWarning  = "warning"
	InsightInfo     = "info"
)

// Insight is one actionable observation about the roster.
type Insight struct {
	Emoji string `json:"emoji"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"`
}

// ExtractInsights pulls a JSON array of insights out of free-form
// completion text. It scans for the first balanced bracket span, parses
// it, drops entries with an unknown type or missing title/body, and caps
// the result at maxInsights. Unparseable text yields nil, never an error;
// the caller decides whether a partial set is usable.
func ExtractInsights(text string) []Insight {
	span := extractJSONArray(text)
	if span == "" {
		return nil
	}

	var raw []Insight
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil
	}

	var insights []Insight
	for _, ins := range raw {
		if ins.Title == "" || ins.Body == "" {
			continue
		}
		switch ins.Type {
		case InsightPositive, InsightWarning, InsightInfo:
		default:
			continue
		}
		insights = append(insights, ins)
		if len(insights) == MaxInsights {
			break
		}
	}
	return insights
}

// extractJSONArray returns the first balanced [...] span in text that is
// valid JSON, or "". Models often wrap the array in prose or code fences.
func extractJSONArray(text string) string {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate
					}
					return ""
				}
			}
		}
	}
	return ""
}

// GenerateInsights builds the roster digest, asks the completion service
// for insights, and extracts them. A roster with no active clients yields
// an empty set without calling the provider.
func (e *Engine) GenerateInsights(ctx context.Context, coachID int64) ([]Insight, error) {
	contextDoc, err := BuildCoachContext(ctx, e.DB, coachID)
	if err != nil {
		return nil, err
	}
	if contextDoc == NoActiveClients {
		return nil, nil
	}

	messages := []Message{
		{Role: "system", Content: "You are a coaching analytics assistant. Base every insight strictly on the data provided."},
		{Role: "user", Content: "=== ROSTER DIGEST ===\n" + contextDoc + "\n\n" + insightsPrompt},
	}
	resp, err := e.Provider.Complete(ctx, messages, Options{
		Temperature: defaultTemperature,
		MaxTokens:   insightMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return ExtractInsights(resp.Content), nil
}
