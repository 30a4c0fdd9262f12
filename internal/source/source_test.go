package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeOne_FullRecord(t *testing.T) {
	d := NormalizeOne(map[string]any{
		"id":    "r1",
		"title": "Doc1",
		"url":   "https://x/doc1.pdf",
		"text":  "first paragraph",
	}, 0)

	require.Equal(t, Doc{ID: "r1", Title: "Doc1", URL: "https://x/doc1.pdf", Type: KindPDF, Snippet: "first paragraph"}, d)
	require.True(t, d.Previewable())
}

func TestNormalizeOne_EmptyRecord(t *testing.T) {
	d := NormalizeOne(map[string]any{}, 3)

	require.Equal(t, "3", d.ID)
	require.Equal(t, DefaultTitle, d.Title)
	require.Empty(t, d.URL)
	require.Equal(t, KindLink, d.Type)
	require.Empty(t, d.Snippet)
	require.False(t, d.Previewable())

	require.Equal(t, "5", NormalizeOne(nil, 5).ID)
}

func TestNormalizeOne_NumericAndOddFields(t *testing.T) {
	d := NormalizeOne(map[string]any{
		"id":      json.Number("42"),
		"title":   12.5,
		"url":     []any{"not", "a", "string"},
		"text":    "",
		"snippet": "from snippet",
	}, 0)

	require.Equal(t, "42", d.ID)
	require.Equal(t, "12.5", d.Title)
	require.Empty(t, d.URL)
	require.Equal(t, KindLink, d.Type)
	require.Equal(t, "from snippet", d.Snippet)
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"https://x/doc.pdf":      KindPDF,
		"https://x/DOC.PDF":      KindPDF,
		"file.Pdf":               KindPDF,
		"https://x/doc.pdf?dl=1": KindLink,
		"https://x/pdf":          KindLink,
		"https://x/doc.pdfx":     KindLink,
		"":                       KindLink,
	}
	for url, want := range cases {
		require.Equal(t, want, Classify(url), url)
	}
}

func TestNormalize_PreservesOrderAndUniqueIDs(t *testing.T) {
	docs := Normalize([]map[string]any{
		{"title": "a"},
		{"id": "0", "title": "b"},
		{"title": "c"},
		{"id": "x"},
		{"id": "x"},
	})

	require.Len(t, docs, 5)
	titles := []string{docs[0].Title, docs[1].Title, docs[2].Title}
	require.Equal(t, []string{"a", "b", "c"}, titles)

	seen := map[string]bool{}
	for _, d := range docs {
		require.NotEmpty(t, d.ID)
		require.False(t, seen[d.ID], "duplicate id %q", d.ID)
		seen[d.ID] = true
	}
	require.Equal(t, "0", docs[0].ID)
	require.Equal(t, "0-1", docs[1].ID)
	require.Equal(t, "2", docs[2].ID)
	require.Equal(t, "x-4", docs[4].ID)
}

func TestNormalize_MissingIDsNeverCollide(t *testing.T) {
	raw := make([]map[string]any, 50)
	for i := range raw {
		raw[i] = map[string]any{"title": "t"}
	}

	seen := map[string]bool{}
	for _, d := range Normalize(raw) {
		require.False(t, seen[d.ID])
		seen[d.ID] = true
	}
	require.Len(t, seen, 50)
}

func TestNormalize_Empty(t *testing.T) {
	require.Nil(t, Normalize(nil))
}
