package game

import (
	"strings"
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.ResetWithLayout(1, testutil.EnclosedStartLayout(pos(6, 6), pos(4, 8))))

	board := e.Board(false)
	lines := strings.Split(board, "\n")
	require.Greater(t, len(lines), 12)
	assert.Contains(t, lines[1], PlayerSymbol)
	assert.Contains(t, lines[11], MoldSymbol)
	assert.Contains(t, board, BarrierSymbol)
	assert.NotContains(t, board, ToasterSymbol+ColorReset)
	assert.Contains(t, board, "episode=1 frame=0")

	revealed := e.Board(true)
	assert.Contains(t, revealed, ToasterSymbol+ColorReset)
	assert.Contains(t, revealed, ButterSymbol+ColorReset)
}
