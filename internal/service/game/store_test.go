package game

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore 构造一个使用固定词卡、长防抖窗口的测试用 store。
func newTestStore(t *testing.T, deck ...string) *RoomStore {
	t.Helper()

	if len(deck) == 0 {
		deck = []string{"Dog", "Cat", "Fish", "Bird", "Horse"}
	}

	s := NewRoomStore(StoreConfig{
		RoomsFile: filepath.Join(t.TempDir(), "rooms.json"),
		DrawDeck: func(difficulty, language string, excluded []string) []string {
			out := make([]string, len(deck))
			copy(out, deck)
			return out
		},
		ReconnectGrace: time.Hour,
		SaveDebounce:   time.Hour,
	})
	t.Cleanup(s.Close)

	return s
}

func newRespCh() chan ResponseWrapper {
	return make(chan ResponseWrapper, 64)
}

// drainFor 把通道里积压的响应取出来，按事件名过滤。
func drainFor(ch chan ResponseWrapper, event string) []ResponseWrapper {
	var out []ResponseWrapper
	for {
		select {
		case resp := <-ch:
			if resp.Event == event {
				out = append(out, resp)
			}
		default:
			return out
		}
	}
}

// setupRoom 建房并加入三名玩家，返回房间号。
// 玩家 ID 依次为 p1（房主）、p2、p3、p4。
func setupRoom(t *testing.T, s *RoomStore) (string, map[string]chan ResponseWrapper) {
	t.Helper()

	chans := map[string]chan ResponseWrapper{
		"p1": newRespCh(),
		"p2": newRespCh(),
		"p3": newRespCh(),
		"p4": newRespCh(),
	}

	code, err := s.CreateRoom("p1", "Alice", "sock-1", chans["p1"])
	require.NoError(t, err)

	require.NoError(t, s.JoinRoom(code, "p2", "Bob", "sock-2", chans["p2"]))
	require.NoError(t, s.JoinRoom(code, "p3", "Carol", "sock-3", chans["p3"]))
	require.NoError(t, s.JoinRoom(code, "p4", "Dave", "sock-4", chans["p4"]))

	return code, chans
}

func getRoom(t *testing.T, s *RoomStore, code string) *Room {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	require.True(t, ok, "房间应当存在: %s", code)

	return room
}

func TestCreateRoom(t *testing.T) {
	s := newTestStore(t)

	ch := newRespCh()
	code, err := s.CreateRoom("p1", "  Alice  ", "sock-1", ch)
	require.NoError(t, err)
	assert.Len(t, code, roomCodeLen)

	room := getRoom(t, s, code)
	assert.Equal(t, "p1", room.HostID)
	assert.Equal(t, STATE_LOBBY, room.GameState)
	assert.Equal(t, 2, room.MaxSkipsPerRound)

	// 名字去掉首尾空白
	assert.Equal(t, "Alice", room.Players["p1"].Name)
	assert.Equal(t, TEAM_A, room.Players["p1"].Team)

	created := drainFor(ch, RESP_ROOM_CREATED)
	require.Len(t, created, 1)
}

func TestCreateRoomRequiresName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateRoom("p1", "   ", "sock-1", newRespCh())
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestRoomCodeIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	code, err := s.CreateRoom("p1", "Alice", "sock-1", newRespCh())
	require.NoError(t, err)

	err = s.JoinRoom(strings.ToLower(code), "p2", "Bob", "sock-2", newRespCh())
	assert.NoError(t, err)
}

func TestJoinAssignsSmallerTeam(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	room := getRoom(t, s, code)

	// 四人依次加入后两队人数相等，且人数差在任意时刻不超过 1
	assert.Len(t, room.Teams[TEAM_A], 2)
	assert.Len(t, room.Teams[TEAM_B], 2)

	// 平局进 A 队
	assert.Equal(t, TEAM_A, room.Players["p1"].Team)
	assert.Equal(t, TEAM_B, room.Players["p2"].Team)
	assert.Equal(t, TEAM_A, room.Players["p3"].Team)
	assert.Equal(t, TEAM_B, room.Players["p4"].Team)
}

func TestJoinRejectedAfterLobby(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	require.NoError(t, s.StartGame(code, "p1", "medium", "en", nil))

	err := s.JoinRoom(code, "p9", "Eve", "sock-9", newRespCh())
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestJoinAsExistingMemberIsReconnect(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	require.NoError(t, s.StartGame(code, "p1", "medium", "en", nil))
	s.Disconnect(code, "p2")

	// 对局已开始，但熟面孔的 join 走重连路径而不是被拒
	ch := newRespCh()
	require.NoError(t, s.JoinRoom(code, "p2", "Bob", "sock-2b", ch))

	room := getRoom(t, s, code)
	assert.True(t, room.Players["p2"].Connected)
	assert.Len(t, room.Players, 4)

	reconnected := drainFor(ch, RESP_RECONNECTED)
	require.Len(t, reconnected, 1)
}

func TestDisconnectStartsGraceThenRemoves(t *testing.T) {
	s := newTestStore(t)
	s.cfg.ReconnectGrace = 30 * time.Millisecond

	code, _ := setupRoom(t, s)

	s.Disconnect(code, "p3")

	room := getRoom(t, s, code)
	assert.False(t, room.Players["p3"].Connected)

	// 宽限期内仍是成员
	assert.Contains(t, room.Players, "p3")

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		r, ok := s.getRoomLocked(code)
		if !ok {
			return false
		}
		_, still := r.Players["p3"]
		return !still
	}, time.Second, 10*time.Millisecond, "宽限期到期后应移除玩家")

	// 队伍列表同步收缩
	room = getRoom(t, s, code)
	assert.NotContains(t, room.Teams[TEAM_A], "p3")
}

func TestReconnectCancelsGraceRemoval(t *testing.T) {
	s := newTestStore(t)
	s.cfg.ReconnectGrace = 40 * time.Millisecond

	code, _ := setupRoom(t, s)

	s.Disconnect(code, "p2")
	require.NoError(t, s.Rejoin(code, "p2", "sock-2b", newRespCh()))

	// 等到原定的宽限期远远过去，玩家仍然在
	time.Sleep(150 * time.Millisecond)

	room := getRoom(t, s, code)
	assert.Contains(t, room.Players, "p2")
	assert.True(t, room.Players["p2"].Connected)
}

// 表演者重连触发恢复计时时，重连广播里的快照必须已经是恢复后的状态，
// 其他玩家也要同步收到计时恢复的通知。
func TestRejoinResumeBroadcastsFreshTimerState(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, chans := startedRoom(t, s)

	require.NoError(t, s.PauseTimer(code, "p2"))
	s.Disconnect(code, "p2")

	// 清掉暂停和断线阶段的广播，只看重连产生的增量
	for _, ch := range chans {
		for len(ch) > 0 {
			<-ch
		}
	}

	rejoinCh := newRespCh()
	require.NoError(t, s.Rejoin(code, "p2", "sock-2b", rejoinCh))

	room := getRoom(t, s, code)
	assert.False(t, room.TimerPaused)
	assert.False(t, room.RoundEndsAt.IsZero())

	// 重连者拿到的快照不能还标着暂停
	reconnected := drainFor(rejoinCh, RESP_RECONNECTED)
	require.Len(t, reconnected, 1)
	payload, ok := reconnected[0].Data.(ReconnectedResponse)
	require.True(t, ok)
	assert.False(t, payload.State.TimerPaused)
	require.NotNil(t, payload.State.RoundEndsAt)
	assert.Greater(t, *payload.State.RoundEndsAt, time.Now().UnixMilli())

	// 其他玩家的 state-sync 同样反映计时在走，且收到一次 timer-resumed
	var syncs, resumes []ResponseWrapper
	for len(chans["p1"]) > 0 {
		resp := <-chans["p1"]
		switch resp.Event {
		case RESP_STATE_SYNC:
			syncs = append(syncs, resp)
		case RESP_TIMER_RESUMED:
			resumes = append(resumes, resp)
		}
	}

	require.NotEmpty(t, syncs)
	envelope, ok := syncs[len(syncs)-1].Data.(StateEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.State.TimerPaused)
	require.NotNil(t, envelope.State.RoundEndsAt)

	require.Len(t, resumes, 1)
	resumePayload, ok := resumes[0].Data.(TimerResumedResponse)
	require.True(t, ok)
	assert.Greater(t, resumePayload.RoundEndsAt, time.Now().UnixMilli())
}

// 非表演者重连不会动别人暂停中的计时器。
func TestRejoinNonActorKeepsTimerPaused(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, _ := startedRoom(t, s)

	require.NoError(t, s.PauseTimer(code, "p2"))
	s.Disconnect(code, "p3")

	require.NoError(t, s.Rejoin(code, "p3", "sock-3b", newRespCh()))

	room := getRoom(t, s, code)
	assert.True(t, room.TimerPaused)
	assert.True(t, room.RoundEndsAt.IsZero())
}

func TestHostHandoffPrefersConnected(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	s.Disconnect(code, "p2")
	s.LeaveRoom(code, "p1")

	room := getRoom(t, s, code)
	newHost := room.Players[room.HostID]
	require.NotNil(t, newHost)
	assert.True(t, newHost.Connected, "新房主应当优先从在线玩家里选")
	assert.NotEqual(t, "p1", room.HostID)
}

func TestLastPlayerLeavingDestroysRoom(t *testing.T) {
	s := newTestStore(t)

	code, err := s.CreateRoom("p1", "Alice", "sock-1", newRespCh())
	require.NoError(t, err)

	s.LeaveRoom(code, "p1")

	s.mu.Lock()
	_, ok := s.getRoomLocked(code)
	assert.Empty(t, s.playerToRoom)
	s.mu.Unlock()

	assert.False(t, ok, "空房间应当被销毁")
}

func TestActorLeavingFinalizesRound(t *testing.T) {
	s := newTestStore(t)
	code, chans := setupRoom(t, s)

	require.NoError(t, s.StartGame(code, "p1", "medium", "en", nil))
	require.NoError(t, s.StartRound(code, "p1", "p2", 60))
	require.NoError(t, s.MarkCorrect(code, "p2"))

	s.LeaveRoom(code, "p2")

	room := getRoom(t, s, code)
	assert.Equal(t, STATE_ROUND_SETUP, room.GameState)
	assert.Empty(t, room.CurrentActorID)
	require.Len(t, room.RoundHistory, 1)
	assert.Equal(t, "Bob", room.RoundHistory[0].Actor)
	assert.Equal(t, 1, room.RoundHistory[0].Correct)

	ended := drainFor(chans["p1"], RESP_ROUND_ENDED)
	assert.Len(t, ended, 1)
}

func TestMovePlayerOnlyInLobby(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	require.NoError(t, s.MovePlayer(code, "p1", "p2", TEAM_A))

	room := getRoom(t, s, code)
	assert.Equal(t, TEAM_A, room.Players["p2"].Team)
	assert.Contains(t, room.Teams[TEAM_A], "p2")
	assert.NotContains(t, room.Teams[TEAM_B], "p2")

	// 非房主不能换队
	assert.ErrorIs(t, s.MovePlayer(code, "p3", "p4", TEAM_A), ErrNotHost)

	require.NoError(t, s.StartGame(code, "p1", "medium", "en", nil))
	assert.ErrorIs(t, s.MovePlayer(code, "p1", "p4", TEAM_A), ErrInvalidAction)
}

func TestTransferHost(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	assert.ErrorIs(t, s.TransferHost(code, "p2", "p3"), ErrNotHost)
	assert.ErrorIs(t, s.TransferHost(code, "p1", "ghost"), ErrPlayerNotFound)

	require.NoError(t, s.TransferHost(code, "p1", "p3"))
	assert.Equal(t, "p3", getRoom(t, s, code).HostID)
}

func TestSetMaxSkips(t *testing.T) {
	s := newTestStore(t)
	code, _ := setupRoom(t, s)

	require.NoError(t, s.SetMaxSkips(code, "p1", 5))
	assert.Equal(t, 5, getRoom(t, s, code).MaxSkipsPerRound)

	// 负数统一归一化成不限次数的哨兵值
	require.NoError(t, s.SetMaxSkips(code, "p1", -3))
	assert.Equal(t, SKIPS_UNLIMITED, getRoom(t, s, code).MaxSkipsPerRound)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Alice", sanitizeName("  Alice\n"))
	assert.Equal(t, "", sanitizeName("   "))

	long := sanitizeName("一二三四五六七八九十一二三四五六七八九十多出来的")
	assert.Equal(t, 20, len([]rune(long)))
}
