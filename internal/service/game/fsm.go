package game

import (
	"slices"

	"go.uber.org/zap"
)

// 合法的状态迁移表，表里没有的一律拒绝。
// 这挡掉了诸如从 gameOver 直接开回合、重复进入 roundActive 之类的请求。
var transitions = map[string][]string{
	STATE_LOBBY:        {STATE_ROUND_SETUP},
	STATE_ROUND_SETUP:  {STATE_ROUND_ACTIVE, STATE_GAME_OVER, STATE_LOBBY},
	STATE_ROUND_ACTIVE: {STATE_ROUND_SETUP, STATE_GAME_OVER},
	STATE_GAME_OVER:    {STATE_LOBBY},
}

func canTransition(from, to string) bool {
	return slices.Contains(transitions[from], to)
}

// transition 尝试把房间迁移到目标状态。
// 非法迁移记一条警告并返回 false，房间状态保持不变。
func transition(room *Room, to string) bool {
	if !canTransition(room.GameState, to) {
		zap.L().Warn(
			"非法的状态迁移",
			zap.String("room_code", room.Code),
			zap.String("from", room.GameState),
			zap.String("to", to),
		)
		return false
	}

	room.GameState = to

	return true
}
