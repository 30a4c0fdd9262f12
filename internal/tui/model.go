// Package tui is the terminal chat interface: a landing screen while the
// conversation is empty, then a scrolling transcript with source cards and
// a compose box.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/comigor/jack-go/internal/chat"
	"github.com/comigor/jack-go/internal/health"
	"github.com/comigor/jack-go/internal/history"
	"github.com/comigor/jack-go/internal/logger"
	"github.com/comigor/jack-go/internal/pdf"
)

// StatusSource is the part of health.Monitor the header needs.
type StatusSource interface {
	Status() health.Status
	Subscribe(fn func(health.Status)) (cancel func())
}

// Deps wires the model to the rest of the client.
type Deps struct {
	Session *chat.Session
	Status  StatusSource
	// Loader may be nil, in which case PDF cards show only links.
	Loader *pdf.Loader
	// ResourceURL returns the remote address of a resource file.
	ResourceURL func(id string) string
}

type (
	statusMsg  health.Status
	storeMsg   history.Event
	answerMsg  struct{ err error }
	previewMsg struct{ key string }
)

// storeBuffer bounds conversation events queued between the store and the
// UI loop.
const storeBuffer = 64

// Model is the Bubble Tea model.
type Model struct {
	ctx  context.Context
	deps Deps

	input textinput.Model
	spin  spinner.Model
	width int

	status   health.Status
	statusCh chan health.Status
	storeCh  chan history.Event
	cancels  []func()

	loading  bool
	previews map[string]*pdf.Preview
}

// New creates the model. Call Close when done to release PDF previews.
func New(ctx context.Context, deps Deps) Model {
	in := textinput.New()
	in.Placeholder = "Type your question…"
	in.Prompt = "› "
	in.CharLimit = 2000
	in.Width = 60
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	m := Model{
		ctx:      ctx,
		deps:     deps,
		input:    in,
		spin:     s,
		width:    80,
		status:   health.StatusChecking,
		statusCh: make(chan health.Status, 1),
		storeCh:  make(chan history.Event, storeBuffer),
		previews: make(map[string]*pdf.Preview),
	}
	if deps.Status != nil {
		ch := m.statusCh
		m.cancels = append(m.cancels, deps.Status.Subscribe(func(s health.Status) {
			latest(ch, s)
		}))
		m.status = deps.Status.Status()
	}
	ch := m.storeCh
	m.cancels = append(m.cancels, deps.Session.Store().Subscribe(func(ev history.Event) {
		select {
		case ch <- ev:
		default:
			logger.L.Warn("conversation event dropped", "kind", ev.Kind)
		}
	}))
	return m
}

// latest queues s, replacing a status the UI has not picked up yet.
func latest(ch chan health.Status, s health.Status) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.listenStatus(), m.listenStore())
}

func (m Model) listenStatus() tea.Cmd {
	ch := m.statusCh
	return func() tea.Msg {
		return statusMsg(<-ch)
	}
}

func (m Model) listenStore() tea.Cmd {
	ch := m.storeCh
	return func() tea.Msg {
		return storeMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.Close()
			return m, tea.Quit

		case "ctrl+n":
			m.closePreviews()
			m.deps.Session.NewChat()
			m.input.SetValue("")
			return m, nil

		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.loading {
				return m, nil
			}
			m.loading = true
			m.input.SetValue("")
			return m, m.askCmd(q)
		}

	case statusMsg:
		m.status = health.Status(msg)
		return m, m.listenStatus()

	case storeMsg:
		return m, tea.Batch(m.listenStore(), m.onStoreEvent(history.Event(msg)))

	case answerMsg:
		m.loading = false
		if msg.err != nil {
			logger.L.Debug("answer failed", "error", msg.err)
		}
		return m, nil

	case previewMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) askCmd(q string) tea.Cmd {
	ctx, session := m.ctx, m.deps.Session
	return func() tea.Msg {
		_, err := session.Ask(ctx, q)
		return answerMsg{err: err}
	}
}

// onStoreEvent starts previews for each new assistant message and drops them
// all when the conversation is reset.
func (m Model) onStoreEvent(ev history.Event) tea.Cmd {
	switch ev.Kind {
	case history.EventAppended:
		if ev.Message.Role == history.RoleAssistant {
			return m.startPreviews(ev.Message)
		}
	case history.EventReset:
		m.closePreviews()
	}
	return nil
}

// startPreviews gives every PDF source of reply its own Preview and loads
// them concurrently; a failure only affects its own card.
func (m Model) startPreviews(reply history.Message) tea.Cmd {
	if m.deps.Loader == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, doc := range reply.Sources {
		if !doc.Previewable() {
			continue
		}
		key := previewKey(reply.ID, doc.ID)
		p := pdf.NewPreview(m.deps.Loader)
		m.previews[key] = p
		ctx, id := m.ctx, doc.ID
		cmds = append(cmds, func() tea.Msg {
			if _, err := p.Show(ctx, id); err != nil {
				logger.L.Debug("pdf preview unavailable", "resource", id, "error", err)
			}
			return previewMsg{key: key}
		})
	}
	return tea.Batch(cmds...)
}

func previewKey(messageID, sourceID string) string {
	return messageID + "/" + sourceID
}

func (m Model) closePreviews() {
	for key, p := range m.previews {
		p.Close()
		delete(m.previews, key)
	}
}

// Close releases every PDF handle and stops listening for status and
// conversation changes.
func (m Model) Close() {
	m.closePreviews()
	for _, cancel := range m.cancels {
		cancel()
	}
}

// Run starts the interface and blocks until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
