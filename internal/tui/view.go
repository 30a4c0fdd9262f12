package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/comigor/jack-go/internal/history"
	"github.com/comigor/jack-go/internal/source"
)

const snippetLimit = 240

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	if m.deps.Session.Landing() {
		b.WriteString(m.landing())
		return b.String()
	}

	for _, msg := range m.deps.Session.Store().Messages() {
		b.WriteString(m.message(msg))
		b.WriteString("\n")
	}
	if m.loading {
		b.WriteString(m.spin.View() + " " + hintStyle.Render("Thinking…") + "\n")
	}
	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(hintStyle.Render("enter send • ctrl+n new chat • esc quit"))
	return b.String()
}

func (m Model) header() string {
	label := string(m.status)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	status := statusDot(string(m.status)).Render("●") + " Backend: " + label
	left := titleStyle.Render("Jack AI") + "  " + hintStyle.Render("ctrl+n new chat")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + status)
}

func (m Model) landing() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Jack AI"),
		hintStyle.Render("Ask anything about your documents."),
		"",
		m.input.View(),
	)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, body)
}

func (m Model) message(msg history.Message) string {
	width := max(m.width*3/4, 20)
	if msg.Role == history.RoleUser {
		bubble := userBubble.MaxWidth(width).Render(msg.Text)
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble)
	}

	parts := []string{assistantBubble.MaxWidth(width).Render(msg.Text)}
	for _, doc := range msg.Sources {
		parts = append(parts, m.card(msg.ID, doc))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) card(messageID string, doc source.Doc) string {
	lines := []string{cardTitle.Render(doc.Title)}
	if doc.Snippet != "" {
		lines = append(lines, hintStyle.Render(truncate(doc.Snippet, snippetLimit)))
	}
	if doc.Previewable() {
		lines = append(lines, m.pdfLine(messageID, doc))
		if m.deps.ResourceURL != nil {
			lines = append(lines, "Open PDF: "+linkStyle.Render(m.deps.ResourceURL(doc.ID)))
		}
	}
	if doc.URL != "" {
		lines = append(lines, linkStyle.Render(doc.URL))
	}
	return cardStyle.MaxWidth(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m Model) pdfLine(messageID string, doc source.Doc) string {
	p, ok := m.previews[previewKey(messageID, doc.ID)]
	if !ok {
		return hintStyle.Render("PDF")
	}
	_, h, err := p.State()
	switch {
	case err != nil:
		return errorStyle.Render("⚠ " + err.Error())
	case h == nil:
		return hintStyle.Render("Loading PDF…")
	default:
		pages := "? pages"
		if h.Pages > 0 {
			pages = fmt.Sprintf("%d pages", h.Pages)
		}
		return fmt.Sprintf("PDF, %s, %s  %s", pages, humanize.Bytes(uint64(h.Size)), linkStyle.Render(h.URL()))
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
