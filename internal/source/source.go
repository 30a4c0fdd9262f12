// Package source turns backend source records into the documents shown
// under an answer.
package source

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind decides how a source is presented.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindLink Kind = "link"
	KindFile Kind = "file"
)

// DefaultTitle labels a source the backend sent without a title.
const DefaultTitle = "Source"

// Doc is a normalized source. Empty URL and Snippet mean absent.
type Doc struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Type    Kind   `json:"type"`
	Snippet string `json:"snippet,omitempty"`
}

// Previewable reports whether the document can be shown as an embedded PDF.
func (d Doc) Previewable() bool { return d.Type == KindPDF }

// Classify returns KindPDF when url ends in ".pdf" (any case), else KindLink.
func Classify(url string) Kind {
	if strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return KindPDF
	}
	return KindLink
}

// NormalizeOne maps a single raw record; index is its position in the list.
func NormalizeOne(raw map[string]any, index int) Doc {
	id := scalar(raw["id"])
	if id == "" {
		id = strconv.Itoa(index)
	}
	title := scalar(raw["title"])
	if title == "" {
		title = DefaultTitle
	}
	url, _ := raw["url"].(string)
	snippet := firstString(raw, "text", "snippet")

	return Doc{
		ID:      id,
		Title:   title,
		URL:     url,
		Type:    Classify(url),
		Snippet: snippet,
	}
}

// Normalize maps raw records in order. IDs are unique within the result:
// a record whose ID repeats an earlier one gets "-<index>" appended.
func Normalize(raw []map[string]any) []Doc {
	if len(raw) == 0 {
		return nil
	}
	docs := make([]Doc, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		d := NormalizeOne(r, i)
		for {
			if _, dup := seen[d.ID]; !dup {
				break
			}
			d.ID = fmt.Sprintf("%s-%d", d.ID, i)
		}
		seen[d.ID] = struct{}{}
		docs[i] = d
	}
	return docs
}

// scalar stringifies strings, numbers and booleans; anything else is "".
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
