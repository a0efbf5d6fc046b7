package game

import (
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"
)

// 持久化快照只保留数据形态，不含任何运行时句柄。
// 连接态不持久化：加载后所有玩家都视为离线并立即进入宽限期。

type playerSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team string `json:"team"`
}

type roomSnapshot struct {
	Code               string              `json:"code"`
	HostID             string              `json:"hostId"`
	Players            []playerSnapshot    `json:"players"`
	Teams              map[string][]string `json:"teams"`
	Scores             map[string]int      `json:"scores"`
	GameState          string              `json:"gameState"`
	Difficulty         string              `json:"difficulty"`
	Language           string              `json:"language"`
	Deck               []string            `json:"deck"`
	DeckIndex          int                 `json:"deckIndex"`
	CurrentActorID     string              `json:"currentActorId,omitempty"`
	RoundDuration      int                 `json:"roundDuration"`
	RoundEndsAt        int64               `json:"roundEndsAt,omitempty"`
	TimerPaused        bool                `json:"timerPaused"`
	PauseRemainingMs   int64               `json:"pauseRemainingMs,omitempty"`
	RoundHistory       []RoundRecord       `json:"roundHistory"`
	CurrentRoundWords  []WordResult        `json:"currentRoundWords"`
	MaxSkipsPerRound   int                 `json:"maxSkipsPerRound"`
	SkipsUsedThisRound int                 `json:"skipsUsedThisRound"`
}

func serializeRoom(room *Room) roomSnapshot {
	players := make([]playerSnapshot, 0, len(room.Players))
	for id, p := range room.Players {
		players = append(players, playerSnapshot{
			ID:   id,
			Name: p.Name,
			Team: p.Team,
		})
	}

	snap := roomSnapshot{
		Code:               room.Code,
		HostID:             room.HostID,
		Players:            players,
		Teams:              room.Teams,
		Scores:             room.Scores,
		GameState:          room.GameState,
		Difficulty:         room.Difficulty,
		Language:           room.Language,
		Deck:               room.Deck,
		DeckIndex:          room.DeckIndex,
		CurrentActorID:     room.CurrentActorID,
		RoundDuration:      room.RoundDuration,
		TimerPaused:        room.TimerPaused,
		PauseRemainingMs:   room.PauseRemaining.Milliseconds(),
		RoundHistory:       room.RoundHistory,
		CurrentRoundWords:  room.CurrentRoundWords,
		MaxSkipsPerRound:   room.MaxSkipsPerRound,
		SkipsUsedThisRound: room.SkipsUsedThisRound,
	}

	if !room.RoundEndsAt.IsZero() {
		snap.RoundEndsAt = room.RoundEndsAt.UnixMilli()
	}

	return snap
}

func restoreRoom(snap roomSnapshot) *Room {
	room := &Room{
		Code:               snap.Code,
		HostID:             snap.HostID,
		Players:            make(map[string]*Player, len(snap.Players)),
		Teams:              snap.Teams,
		Scores:             snap.Scores,
		GameState:          snap.GameState,
		Difficulty:         snap.Difficulty,
		Language:           snap.Language,
		Deck:               snap.Deck,
		DeckIndex:          snap.DeckIndex,
		CurrentActorID:     snap.CurrentActorID,
		RoundDuration:      snap.RoundDuration,
		TimerPaused:        snap.TimerPaused,
		PauseRemaining:     time.Duration(snap.PauseRemainingMs) * time.Millisecond,
		RoundHistory:       snap.RoundHistory,
		CurrentRoundWords:  snap.CurrentRoundWords,
		MaxSkipsPerRound:   snap.MaxSkipsPerRound,
		SkipsUsedThisRound: snap.SkipsUsedThisRound,
	}

	if room.Teams == nil {
		room.Teams = map[string][]string{TEAM_A: {}, TEAM_B: {}}
	}
	if room.Scores == nil {
		room.Scores = map[string]int{TEAM_A: 0, TEAM_B: 0}
	}
	if room.RoundHistory == nil {
		room.RoundHistory = []RoundRecord{}
	}
	if room.CurrentRoundWords == nil {
		room.CurrentRoundWords = []WordResult{}
	}

	if snap.RoundEndsAt != 0 {
		room.RoundEndsAt = time.UnixMilli(snap.RoundEndsAt)
	}

	for _, ps := range snap.Players {
		room.Players[ps.ID] = &Player{
			ID:   ps.ID,
			Name: ps.Name,
			Team: ps.Team,
		}
	}

	return room
}

// scheduleSaveLocked 标记脏位并安排一次防抖写入，窗口内的突发修改合并成一次。
func (s *RoomStore) scheduleSaveLocked() {
	s.dirty = true

	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.cfg.SaveDebounce, s.flushDebounced)
	}
}

func (s *RoomStore) flushDebounced() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveTimer = nil
	if !s.dirty {
		return
	}
	s.dirty = false

	s.persistLocked()
}

// ForceSave 立即同步写盘，用于优雅停机。
func (s *RoomStore) ForceSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.dirty = false

	s.persistLocked()
}

// persistLocked 写失败只记日志：内存状态仍是权威，下个防抖周期会重试。
func (s *RoomStore) persistLocked() {
	if s.cfg.RoomsFile == "" {
		return
	}

	snaps := make([]roomSnapshot, 0, len(s.rooms))
	for _, room := range s.rooms {
		snaps = append(snaps, serializeRoom(room))
	}

	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		zap.L().Error("序列化房间快照失败", zap.Error(err))
		return
	}

	if err := os.WriteFile(s.cfg.RoomsFile, data, 0o644); err != nil {
		zap.L().Error(
			"保存房间快照失败",
			zap.String("path", s.cfg.RoomsFile),
			zap.Error(err),
		)
		return
	}

	zap.L().Debug("房间快照已落盘", zap.Int("rooms", len(snaps)))
}

// Load 启动时恢复持久化的房间并修复计时器：
//   - 进行中且未暂停的回合，截止时刻已过的立即结算（等同计时器在离线期间触发），
//     否则按剩余时间重新调度一次回调；
//   - 暂停中的房间保持暂停，等客户端显式恢复。
//
// 所有玩家以离线态恢复，立即进入各自的宽限期倒计时。
func (s *RoomStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.RoomsFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.cfg.RoomsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snaps []roomSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return err
	}

	for _, snap := range snaps {
		room := restoreRoom(snap)
		s.rooms[room.Code] = room

		for id, p := range room.Players {
			s.playerToRoom[id] = room.Code

			roomCode := room.Code
			playerID := id
			p.removeTimer = time.AfterFunc(s.cfg.ReconnectGrace, func() {
				s.removeAfterGrace(roomCode, playerID)
			})
		}

		if room.GameState == STATE_ROUND_ACTIVE && !room.TimerPaused {
			remaining := time.Duration(0)
			if !room.RoundEndsAt.IsZero() {
				remaining = time.Until(room.RoundEndsAt)
			}

			if remaining <= 0 {
				zap.L().Info(
					"回合在离线期间到期，立即结算",
					zap.String("room_code", room.Code),
				)
				s.finalizeRoundLocked(room)
				s.notifyRoundEndedLocked(room)
			} else {
				zap.L().Info(
					"恢复回合计时",
					zap.String("room_code", room.Code),
					zap.Duration("remaining", remaining),
				)
				s.scheduleEndLocked(room, remaining)
			}
		}
	}

	if len(s.rooms) > 0 {
		zap.L().Info("已加载持久化房间", zap.Int("rooms", len(s.rooms)))
	}

	return nil
}
