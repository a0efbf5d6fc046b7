package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminOverview(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	_, err := s.CreateRoom("q1", "Eve", "sock-q1", newRespCh())
	require.NoError(t, err)

	require.NoError(t, s.StartGame(code, "p1", "medium", "en", nil))
	s.Disconnect(code, "p4")

	overview := s.AdminOverview()
	assert.Equal(t, 2, overview.Stats.TotalRooms)
	assert.Equal(t, 5, overview.Stats.TotalPlayers)
	assert.Equal(t, 1, overview.Stats.GamesInProgress)

	var info *AdminRoomInfo
	for i := range overview.Rooms {
		if overview.Rooms[i].Code == code {
			info = &overview.Rooms[i]
		}
	}
	require.NotNil(t, info)
	assert.Equal(t, STATE_ROUND_SETUP, info.GameState)
	assert.Equal(t, 4, info.PlayerCount)
	assert.Equal(t, 3, info.ConnectedCount)
}

func TestAdminCloseRoom(t *testing.T) {
	s := newTestStore(t)
	code, chans := setupRoom(t, s)

	require.NoError(t, s.AdminCloseRoom(code))

	s.mu.Lock()
	_, ok := s.getRoomLocked(code)
	assert.Empty(t, s.playerToRoom)
	s.mu.Unlock()
	assert.False(t, ok)

	for id, ch := range chans {
		closed := drainFor(ch, RESP_ROOM_CLOSED)
		assert.Len(t, closed, 1, "玩家 %s 应收到关房通知", id)
	}

	assert.ErrorIs(t, s.AdminCloseRoom("ZZZZ"), ErrRoomNotFound)
}
