package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/jack-go/internal/source"
)

func TestAppend_AssignsIDsInOrder(t *testing.T) {
	s := New()
	require.True(t, s.Empty())

	u := s.Append(Message{Role: RoleUser, Text: "What is X?"})
	a := s.Append(Message{Role: RoleAssistant, Text: "X is..."})

	require.NotEmpty(t, u.ID)
	require.NotEqual(t, u.ID, a.ID)
	require.False(t, u.CreatedAt.IsZero())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, RoleUser, msgs[0].Role)
	require.Equal(t, "X is...", msgs[1].Text)
	require.False(t, s.Empty())
}

func TestAppend_KeepsGivenID(t *testing.T) {
	s := New()
	m := s.Append(Message{ID: "fixed", Role: RoleAssistant})
	require.Equal(t, "fixed", m.ID)
}

func TestAppend_NoRoleValidation(t *testing.T) {
	s := New()
	s.Append(Message{Role: RoleAssistant, Text: "a"})
	s.Append(Message{Role: RoleAssistant, Text: "b"})
	s.Append(Message{Role: RoleUser, Text: "c"})
	s.Append(Message{Role: RoleUser, Text: "d"})
	require.Equal(t, 4, s.Len())
}

func TestMessages_ReturnsCopies(t *testing.T) {
	s := New()
	s.Append(Message{Role: RoleAssistant, Sources: []source.Doc{{ID: "r1", Title: "Doc1"}}})

	msgs := s.Messages()
	msgs[0].Text = "changed"
	msgs[0].Sources[0].Title = "changed"

	again := s.Messages()
	require.Empty(t, again[0].Text)
	require.Equal(t, "Doc1", again[0].Sources[0].Title)
}

func TestReset_AlwaysEmpties(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		s := New()
		for i := 0; i < n; i++ {
			s.Append(Message{Role: RoleUser, Text: "q"})
		}
		s.Reset()
		require.Equal(t, 0, s.Len())
		require.True(t, s.Empty())
	}
}

func TestSubscribe(t *testing.T) {
	s := New()
	var events []Event
	cancel := s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.Append(Message{Role: RoleUser, Text: "hi"})
	s.Reset()
	cancel()
	cancel()
	s.Append(Message{Role: RoleUser, Text: "unseen"})

	require.Len(t, events, 2)
	require.Equal(t, EventAppended, events[0].Kind)
	require.Equal(t, "hi", events[0].Message.Text)
	require.Equal(t, 1, events[0].Len)
	require.Equal(t, EventReset, events[1].Kind)
}

func TestAppend_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(Message{Role: RoleUser, Text: "q"})
		}()
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, m := range s.Messages() {
		ids[m.ID] = true
	}
	require.Len(t, ids, 20)
}
