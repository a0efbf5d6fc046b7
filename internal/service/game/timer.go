package game

import (
	"time"

	"go.uber.org/zap"
)

// 回合计时基于绝对截止时刻，每个房间只挂一个延迟回调，
// 不做周期滴答，因而既不累积漂移也不浪费唤醒。

// clearTimerLocked 取消已调度的回调并使其代数失效。
// 调度新回调之前必须先走这里，保证同一房间不会出现重复触发。
func (s *RoomStore) clearTimerLocked(room *Room) {
	room.timerGen++

	if room.roundEndTimer != nil {
		room.roundEndTimer.Stop()
		room.roundEndTimer = nil
	}
}

// scheduleEndLocked 在 d 之后触发回合结算。
// 回调里校验代数和状态：已被取消或房间早已离开 roundActive 的陈旧回调直接放弃。
func (s *RoomStore) scheduleEndLocked(room *Room, d time.Duration) {
	s.clearTimerLocked(room)

	gen := room.timerGen
	code := room.Code

	room.roundEndTimer = time.AfterFunc(max(0, d), func() {
		s.onTimerFired(code, gen)
	})
}

func (s *RoomStore) onTimerFired(code string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return
	}
	if room.timerGen != gen {
		// 陈旧回调：在它触发和抢到锁之间，回合已经被暂停或重开
		return
	}
	if room.GameState != STATE_ROUND_ACTIVE {
		return
	}

	room.roundEndTimer = nil

	zap.L().Info(
		"回合计时到期",
		zap.String("room_code", code),
	)

	s.finalizeRoundLocked(room)
	s.notifyRoundEndedLocked(room)
}

func (s *RoomStore) startTimerLocked(room *Room, durationSec int) {
	room.RoundDuration = durationSec
	room.RoundEndsAt = time.Now().Add(time.Duration(durationSec) * time.Second)
	room.TimerPaused = false
	room.PauseRemaining = 0

	s.scheduleEndLocked(room, time.Duration(durationSec)*time.Second)
}

// pauseTimerLocked 捕获剩余预算并取消回调。只在回合进行中且未暂停时有效。
func (s *RoomStore) pauseTimerLocked(room *Room) bool {
	if room.GameState != STATE_ROUND_ACTIVE || room.TimerPaused {
		return false
	}
	if room.RoundEndsAt.IsZero() {
		return false
	}

	remaining := time.Until(room.RoundEndsAt)
	if remaining <= 0 {
		return false
	}

	room.PauseRemaining = remaining
	room.TimerPaused = true
	room.RoundEndsAt = time.Time{}

	s.clearTimerLocked(room)
	s.scheduleSaveLocked()

	return true
}

// resumeTimerLocked 按剩余预算重新计算截止时刻并重新调度。
func (s *RoomStore) resumeTimerLocked(room *Room) bool {
	if room.GameState != STATE_ROUND_ACTIVE || !room.TimerPaused {
		return false
	}
	if room.PauseRemaining <= 0 {
		return false
	}

	room.RoundEndsAt = time.Now().Add(room.PauseRemaining)
	room.TimerPaused = false

	s.scheduleEndLocked(room, room.PauseRemaining)
	room.PauseRemaining = 0

	s.scheduleSaveLocked()

	return true
}

// timeRemainingLocked 返回剩余秒数（向上取整）。
func timeRemainingLocked(room *Room) int {
	if room.GameState != STATE_ROUND_ACTIVE {
		return 0
	}
	if room.TimerPaused {
		return max(0, int((room.PauseRemaining+time.Second-1)/time.Second))
	}
	if room.RoundEndsAt.IsZero() {
		return 0
	}

	remaining := time.Until(room.RoundEndsAt)

	return max(0, int((remaining+time.Second-1)/time.Second))
}
