package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauseCapturesRemainingBudget(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, chans := startedRoom(t, s)

	require.NoError(t, s.PauseTimer(code, "p2"))

	room := getRoom(t, s, code)
	assert.True(t, room.TimerPaused)
	assert.True(t, room.RoundEndsAt.IsZero())
	assert.Greater(t, room.PauseRemaining, 50*time.Second)
	assert.LessOrEqual(t, room.PauseRemaining, 60*time.Second)
	assert.Nil(t, room.roundEndTimer)

	// 重复暂停是无操作，只广播一次
	require.NoError(t, s.PauseTimer(code, "p2"))
	assert.Len(t, drainFor(chans["p1"], RESP_TIMER_PAUSED), 1)

	// 暂停期间剩余时间不再流逝
	before := timeRemainingLocked(room)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, timeRemainingLocked(room))
}

func TestResumeReschedulesFromBudget(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, chans := startedRoom(t, s)

	require.NoError(t, s.PauseTimer(code, "p2"))
	require.NoError(t, s.ResumeTimer(code, "p2"))

	room := getRoom(t, s, code)
	assert.False(t, room.TimerPaused)
	assert.Zero(t, room.PauseRemaining)
	assert.False(t, room.RoundEndsAt.IsZero())
	assert.NotNil(t, room.roundEndTimer)

	resumed := drainFor(chans["p3"], RESP_TIMER_RESUMED)
	require.Len(t, resumed, 1)
	payload, ok := resumed[0].Data.(TimerResumedResponse)
	require.True(t, ok)
	assert.Greater(t, payload.RoundEndsAt, time.Now().UnixMilli())

	// 未暂停时 resume 是无操作
	require.NoError(t, s.ResumeTimer(code, "p2"))
	assert.Empty(t, drainFor(chans["p3"], RESP_TIMER_RESUMED))
}

func TestPauseResumeOnlyActor(t *testing.T) {
	s := newTestStore(t, "Dog")
	code, _ := startedRoom(t, s)

	assert.ErrorIs(t, s.PauseTimer(code, "p1"), ErrNotActor)
	assert.ErrorIs(t, s.ResumeTimer(code, "p3"), ErrNotActor)
}

func TestTimerExpiryFinalizesRound(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, chans := startedRoom(t, s)

	require.NoError(t, s.MarkCorrect(code, "p2"))

	// 把截止时刻改近，模拟回合自然到期
	s.mu.Lock()
	room, _ := s.getRoomLocked(code)
	room.RoundEndsAt = time.Now().Add(10 * time.Millisecond)
	s.scheduleEndLocked(room, 10*time.Millisecond)
	s.mu.Unlock()

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		r, _ := s.getRoomLocked(code)
		return r.GameState == STATE_ROUND_SETUP
	}, time.Second, 10*time.Millisecond)

	room = getRoom(t, s, code)
	require.Len(t, room.RoundHistory, 1)
	assert.Equal(t, 1, room.RoundHistory[0].Correct)
	assert.Empty(t, room.CurrentActorID)
	assert.True(t, room.RoundEndsAt.IsZero())

	// 到期结算恰好广播一次
	assert.Len(t, drainFor(chans["p1"], RESP_ROUND_ENDED), 1)
}

// 陈旧回调：触发后代数已经变了，必须直接放弃，
// 否则会把下一个回合错误地结算掉。
func TestStaleTimerCallbackIsIgnored(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, _ := startedRoom(t, s)

	s.mu.Lock()
	room, _ := s.getRoomLocked(code)
	staleGen := room.timerGen
	// 模拟暂停后重新调度，代数前进
	s.clearTimerLocked(room)
	s.scheduleEndLocked(room, time.Hour)
	s.mu.Unlock()

	s.onTimerFired(code, staleGen)

	room = getRoom(t, s, code)
	assert.Equal(t, STATE_ROUND_ACTIVE, room.GameState)
	assert.Empty(t, room.RoundHistory)
}

func TestTimerCallbackAfterRoundEndedIsIgnored(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")
	code, _ := startedRoom(t, s)

	s.mu.Lock()
	room, _ := s.getRoomLocked(code)
	gen := room.timerGen
	s.mu.Unlock()

	require.NoError(t, s.EndRound(code, "p1"))

	// 房主手动结束后，同代数的回调也不能再结算一次
	s.onTimerFired(code, gen)

	room = getRoom(t, s, code)
	assert.Equal(t, STATE_ROUND_SETUP, room.GameState)
	assert.Len(t, room.RoundHistory, 1)
}

// 回合结束钩子在每次结算时触发恰好一次。
func TestRoundEndHandlerFiresOnce(t *testing.T) {
	s := newTestStore(t, "Dog", "Cat")

	var fired []string
	s.SetRoundEndHandler(func(roomCode string) {
		fired = append(fired, roomCode)
	})

	code, _ := startedRoom(t, s)
	require.NoError(t, s.EndRound(code, "p1"))

	assert.Equal(t, []string{code}, fired)

	// 回合已经结束，再次手动结束被拒，钩子不重复触发
	assert.ErrorIs(t, s.EndRound(code, "p1"), ErrInvalidAction)
	assert.Len(t, fired, 1)
}

func TestTimeRemainingRoundsUp(t *testing.T) {
	room := newRoom("TEST", "p1")
	room.GameState = STATE_ROUND_ACTIVE
	room.RoundEndsAt = time.Now().Add(2*time.Second + 300*time.Millisecond)

	assert.Equal(t, 3, timeRemainingLocked(room))

	room.RoundEndsAt = time.Now().Add(-time.Second)
	assert.Equal(t, 0, timeRemainingLocked(room))

	room.GameState = STATE_ROUND_SETUP
	assert.Equal(t, 0, timeRemainingLocked(room))
}
