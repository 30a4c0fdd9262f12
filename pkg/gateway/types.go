package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/comigor/jack-go/internal/logger"
)

// Fixed retrieval parameters sent with every question.
const (
	DefaultSize        = 30
	DefaultMaxChunks   = 10
	DefaultUseSemantic = true
	DefaultMinScore    = 0.0
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query       string  `json:"query"`
	Size        int     `json:"size"`
	MaxChunks   int     `json:"max_chunks"`
	UseSemantic bool    `json:"use_semantic"`
	MinScore    float64 `json:"min_score"`
}

// NewAskRequest wraps a question with the fixed retrieval parameters.
func NewAskRequest(question string) AskRequest {
	return AskRequest{
		Query:       question,
		Size:        DefaultSize,
		MaxChunks:   DefaultMaxChunks,
		UseSemantic: DefaultUseSemantic,
		MinScore:    DefaultMinScore,
	}
}

// RawSource is one backend source record, kept loosely typed because the
// backend gives no guarantee about which fields are present.
type RawSource = map[string]any

// Answer is a decoded 2xx response.
type Answer struct {
	Text    string
	Sources []RawSource
}

// Resource is a downloaded resource file.
type Resource struct {
	ID          string
	ContentType string
	Data        []byte
}

// textFields lists, in priority order, the fields that may carry the answer.
var textFields = []string{"answer", "reply", "content"}

// ExtractText returns the first non-empty string among answer, reply and
// content. Missing or non-string fields are skipped; the result is "" when
// none qualifies.
func ExtractText(obj map[string]any) string {
	for _, field := range textFields {
		if s, ok := obj[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ParseAnswer decodes a success body. It never fails: anything that is not a
// JSON object yields an empty Answer, and non-object entries in "sources"
// are dropped.
func ParseAnswer(raw []byte) *Answer {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		logger.L.Warn("malformed answer body", "error", err, "bytes", len(raw))
		return &Answer{}
	}

	answer := &Answer{Text: ExtractText(obj)}
	list, _ := obj["sources"].([]any)
	for _, item := range list {
		if src, ok := item.(map[string]any); ok {
			answer.Sources = append(answer.Sources, src)
		}
	}
	return answer
}
