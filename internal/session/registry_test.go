package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSession(id string) func() *Session {
	return func() *Session { return New(id, "system instruction") }
}

func TestObtainCreatesOnce(t *testing.T) {
	r := NewRegistry()

	h, created := r.Obtain("CA1", newTestSession("CA1"))
	require.True(t, created)
	require.Equal(t, "CA1", h.Session().CallID)
	h.Release()

	h, created = r.Obtain("CA1", newTestSession("CA1"))
	require.False(t, created)
	h.Release()

	require.Equal(t, 1, r.Len())
}

func TestLookupAbsent(t *testing.T) {
	r := NewRegistry()
	require.Nil(t, r.Lookup("CA404"))
}

func TestRemoveDeletesSession(t *testing.T) {
	r := NewRegistry()

	h, _ := r.Obtain("CA1", newTestSession("CA1"))
	h.Remove()

	require.False(t, r.Exists("CA1"))
	require.Nil(t, r.Lookup("CA1"))

	// A later start event for the same id builds a fresh session.
	h, created := r.Obtain("CA1", newTestSession("CA1"))
	require.True(t, created)
	require.Empty(t, h.Session().Transcript)
	h.Release()
}

func TestConcurrentMutationIsSerialized(t *testing.T) {
	r := NewRegistry()

	const workers = 10
	const appends = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < appends; i++ {
				h, _ := r.Obtain("CA1", newTestSession("CA1"))
				h.Session().Record(RoleCaller, fmt.Sprintf("worker %d line %d", w, i))
				h.Release()
			}
		}(w)
	}
	wg.Wait()

	h := r.Lookup("CA1")
	require.NotNil(t, h)
	require.Len(t, h.Session().Transcript, workers*appends)
	h.Release()
}

func TestConcurrentRemoveAndLookup(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("CA%d", i)
		h, _ := r.Obtain(id, newTestSession(id))
		h.Release()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if h := r.Lookup(id); h != nil {
				h.Remove()
			}
		}()
		go func() {
			defer wg.Done()
			if h := r.Lookup(id); h != nil {
				h.Release()
			}
		}()
		wg.Wait()

		require.False(t, r.Exists(id))
	}
}

func TestTranscriptText(t *testing.T) {
	s := New("CA1", "sys")
	s.Record(RoleAssistant, "Hello!")
	s.Record(RoleCaller, "Hi, about my invoice.")

	require.Equal(t, "Assistant: Hello!\nCaller: Hi, about my invoice.\n", s.TranscriptText())
}

func TestCommitExchangeKeepsAlternation(t *testing.T) {
	s := New("CA1", "sys")
	s.CommitExchange("question", "answer")
	s.CommitExchange("more", "reply")

	require.Len(t, s.History, 5)
	require.Equal(t, RoleSystem, s.History[0].Role)
	for i := 1; i < len(s.History); i += 2 {
		require.Equal(t, RoleCaller, s.History[i].Role)
		require.Equal(t, RoleAssistant, s.History[i+1].Role)
	}
}
