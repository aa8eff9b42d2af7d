package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelAppliesUpdates(t *testing.T) {
	m := initialModel()
	assert.Contains(t, m.View(), "waiting for changes")

	updated, _ := m.Update(updateMsg{result: sampleResult(), version: 3, files: 10, edges: 12})
	state, ok := updated.(model)
	require.True(t, ok)
	assert.Len(t, state.list.Items(), 3)
	assert.Equal(t, 1, state.updates)
	assert.Contains(t, state.View(), "score 72")

	updated, _ = state.Update(updateMsg{version: 3, err: errors.New("boom")})
	state = updated.(model)
	assert.Len(t, state.list.Items(), 3, "failed updates keep the last result")
	assert.Contains(t, state.View(), "update failed: boom")
}

func TestModelQuits(t *testing.T) {
	_, cmd := initialModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
