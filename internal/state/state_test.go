package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFile(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "agent_state.json"))

	s, err := st.Load()
	require.NoError(t, err)

	assert.Empty(t, s.History)
	assert.Empty(t, s.PendingPosts)
	assert.Equal(t, time.Unix(0, 0).UTC(), s.StreamedUntil)
}

func TestStore_RoundTrip(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "agent_state.json"))

	want := &AgentState{
		History: []HistoryItem{
			{ModelAction: "reply_to_content t1_abc", ActionResult: "result: Reply posted successfully"},
			{ModelAction: "show_username", ActionResult: "username: regent"},
		},
		PendingPosts: []PendingPost{
			{ID: "aaa111", Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
			{ID: "bbb222", Timestamp: time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC)},
		},
		StreamedUntil: time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC),
	}
	require.NoError(t, st.Save(want))

	got, err := st.Load()
	require.NoError(t, err)

	assert.Equal(t, want.History, got.History)
	assert.Equal(t, want.PendingPosts, got.PendingPosts)
	assert.True(t, want.StreamedUntil.Equal(got.StreamedUntil))
}

func TestStore_SaveOverwritesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_state.json")
	st := NewStore(path)

	first := &AgentState{
		History:       []HistoryItem{{ModelAction: "a", ActionResult: "r"}},
		PendingPosts:  []PendingPost{{ID: "x", Timestamp: time.Now().UTC()}},
		StreamedUntil: time.Now().UTC(),
	}
	require.NoError(t, st.Save(first))

	second := &AgentState{
		History:       []HistoryItem{},
		PendingPosts:  []PendingPost{},
		StreamedUntil: time.Unix(0, 0).UTC(),
	}
	require.NoError(t, st.Save(second))

	got, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, got.History)
	assert.Empty(t, got.PendingPosts)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "agent_state.json", entries[0].Name())
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestAgentState_AppendHistory(t *testing.T) {
	t.Run("evicts oldest first when bound exceeded", func(t *testing.T) {
		s := &AgentState{}
		for i, action := range []string{"one", "two", "three", "four"} {
			s.AppendHistory(HistoryItem{ModelAction: action}, 3)
			wantLen := i + 1
			if wantLen > 3 {
				wantLen = 3
			}
			assert.Len(t, s.History, wantLen)
		}
		assert.Equal(t, "two", s.History[0].ModelAction)
		assert.Equal(t, "four", s.History[2].ModelAction)
	})

	t.Run("exceeding the bound by one drops exactly the oldest", func(t *testing.T) {
		s := &AgentState{History: []HistoryItem{{ModelAction: "a"}, {ModelAction: "b"}}}
		s.AppendHistory(HistoryItem{ModelAction: "c"}, 2)
		assert.Equal(t, []HistoryItem{{ModelAction: "b"}, {ModelAction: "c"}}, s.History)
	})

	t.Run("zero bound means unbounded", func(t *testing.T) {
		s := &AgentState{}
		for i := 0; i < 10; i++ {
			s.AppendHistory(HistoryItem{ModelAction: "x"}, 0)
		}
		assert.Len(t, s.History, 10)
	})
}

func TestAgentState_HasPending(t *testing.T) {
	s := &AgentState{PendingPosts: []PendingPost{{ID: "abc"}}}
	assert.True(t, s.HasPending("abc"))
	assert.False(t, s.HasPending("def"))
}
