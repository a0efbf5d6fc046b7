package game

import (
	"time"

	"go.uber.org/zap"
)

// StartGame 由房主发起，仅允许从 lobby 进入 roundSetup。
// 抽牌时排除 excluded 中的词（由调用方从屏蔽词表取出）。
func (s *RoomStore) StartGame(code, callerID, difficulty, language string, excluded []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}

	if language == "" {
		language = "en"
	}

	if !transition(room, STATE_ROUND_SETUP) {
		return ErrInvalidAction
	}

	room.Difficulty = difficulty
	room.Language = language
	room.Deck = s.cfg.DrawDeck(difficulty, language, excluded)
	room.DeckIndex = 0
	room.Scores = map[string]int{TEAM_A: 0, TEAM_B: 0}
	room.RoundHistory = []RoundRecord{}
	room.CurrentRoundWords = []WordResult{}

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_GAME_STARTED)

	zap.L().Info(
		"游戏开始",
		zap.String("room_code", code),
		zap.String("difficulty", difficulty),
		zap.String("language", language),
		zap.Int("deck_size", len(room.Deck)),
	)

	return nil
}

// StartRound 由房主指定表演者开始回合。
// 表演者必须是当前在线的房间成员。
func (s *RoomStore) StartRound(code, callerID, actorID string, durationSec int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}

	actor, ok := room.Players[actorID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !actor.Connected {
		return ErrInvalidAction
	}
	if durationSec <= 0 {
		return ErrInvalidAction
	}

	if !transition(room, STATE_ROUND_ACTIVE) {
		return ErrInvalidAction
	}

	room.CurrentActorID = actorID
	room.CurrentRoundWords = []WordResult{}
	room.SkipsUsedThisRound = 0

	s.startTimerLocked(room, durationSec)
	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_ROUND_STARTED)

	zap.L().Info(
		"回合开始",
		zap.String("room_code", code),
		zap.String("actor", actor.Name),
		zap.Int("duration_sec", durationSec),
	)

	return nil
}

// MarkCorrect 表演者标记当前词猜对：本队加一分，游标前进。
// 下一个词只发给表演者本人。牌堆耗尽时是无操作。
func (s *RoomStore) MarkCorrect(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.CurrentActorID != callerID {
		return ErrNotActor
	}
	if room.GameState != STATE_ROUND_ACTIVE {
		return nil
	}

	word, ok := room.currentWord()
	if !ok {
		return nil
	}

	actor := room.Players[room.CurrentActorID]
	if actor != nil {
		room.Scores[actor.Team]++
	}

	room.CurrentRoundWords = append(room.CurrentRoundWords, WordResult{
		Word:   word,
		Result: RESULT_CORRECT,
	})
	room.DeckIndex++

	s.scheduleSaveLocked()
	s.emitWordResultLocked(room, word, RESULT_CORRECT, nil)

	return nil
}

// MarkSkip 表演者跳过当前词。预算用尽时给表演者单发 skip-denied，
// 游标不动——这是常规游戏状态，不是错误。
func (s *RoomStore) MarkSkip(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.CurrentActorID != callerID {
		return ErrNotActor
	}
	if room.GameState != STATE_ROUND_ACTIVE {
		return nil
	}

	word, ok := room.currentWord()
	if !ok {
		return nil
	}

	if room.MaxSkipsPerRound >= 0 && room.SkipsUsedThisRound >= room.MaxSkipsPerRound {
		actor := room.Players[callerID]
		if actor != nil {
			actor.send(WrapResponse(RESP_SKIP_DENIED, SkipDeniedResponse{
				Message:   "本回合跳过次数已用完",
				SkipsUsed: room.SkipsUsedThisRound,
				MaxSkips:  room.MaxSkipsPerRound,
			}))
		}
		return nil
	}

	room.SkipsUsedThisRound++
	room.CurrentRoundWords = append(room.CurrentRoundWords, WordResult{
		Word:   word,
		Result: RESULT_SKIP,
	})
	room.DeckIndex++

	s.scheduleSaveLocked()

	remaining := room.skipsRemaining()
	s.emitWordResultLocked(room, word, RESULT_SKIP, &remaining)

	return nil
}

// emitWordResultLocked 给所有在线玩家发 word-result。
// 只有表演者的那份带 nextWord。
func (s *RoomStore) emitWordResultLocked(room *Room, word, result string, skipsRemaining *int) {
	var nextWord *string
	if next, ok := room.currentWord(); ok {
		nextWord = &next
	}

	for id, p := range room.Players {
		if !p.Connected {
			continue
		}

		resp := WordResultResponse{
			Word:           word,
			Result:         result,
			Scores:         copyScores(room.Scores),
			TimeRemaining:  timeRemainingLocked(room),
			SkipsRemaining: skipsRemaining,
		}
		if id == room.CurrentActorID {
			resp.NextWord = nextWord
		}

		p.send(WrapResponse(RESP_WORD_RESULT, resp))
	}
}

// RemoveWord 把游标处的词从牌堆中永久剔除，不计分也不进回合记录。
// 牌堆在游标下方收缩，游标本身不动。返回被剔除的词，
// 由调用方负责把它写进屏蔽词表。
func (s *RoomStore) RemoveWord(code, callerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return "", ErrRoomNotFound
	}
	if room.CurrentActorID != callerID {
		return "", ErrNotActor
	}
	if room.GameState != STATE_ROUND_ACTIVE {
		return "", nil
	}

	word, ok := room.currentWord()
	if !ok {
		return "", nil
	}

	room.Deck = append(room.Deck[:room.DeckIndex], room.Deck[room.DeckIndex+1:]...)

	s.scheduleSaveLocked()

	var nextWord *string
	if next, ok := room.currentWord(); ok {
		nextWord = &next
	}

	for id, p := range room.Players {
		if !p.Connected {
			continue
		}

		resp := WordRemovedResponse{
			Word:          word,
			TimeRemaining: timeRemainingLocked(room),
		}
		if id == room.CurrentActorID {
			resp.NextWord = nextWord
		}

		p.send(WrapResponse(RESP_WORD_REMOVED, resp))
	}

	zap.L().Info(
		"词已被永久剔除",
		zap.String("room_code", code),
		zap.String("word", word),
	)

	return word, nil
}

// UndoCorrect 房主撤销本回合中某次猜对：分数减一（不低于零），
// 条目原地翻转为 cancelled。词不回到牌堆。
func (s *RoomStore) UndoCorrect(code, callerID string, wordIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}
	if wordIndex < 0 || wordIndex >= len(room.CurrentRoundWords) {
		return ErrInvalidAction
	}

	entry := &room.CurrentRoundWords[wordIndex]
	if entry.Result != RESULT_CORRECT {
		return ErrInvalidAction
	}

	actor := room.Players[room.CurrentActorID]
	if actor != nil {
		room.Scores[actor.Team] = max(0, room.Scores[actor.Team]-1)
	}

	entry.Result = RESULT_CANCELLED

	s.scheduleSaveLocked()

	words := make([]WordResult, len(room.CurrentRoundWords))
	copy(words, room.CurrentRoundWords)

	room.broadcast(WrapResponse(RESP_WORD_UNDONE, WordUndoneResponse{
		Word:              entry.Word,
		WordIndex:         wordIndex,
		Scores:            copyScores(room.Scores),
		CurrentRoundWords: words,
		TimeRemaining:     timeRemainingLocked(room),
	}))

	return nil
}

// UndoHistoryWord 对已结算回合里的词做同样的撤销，
// 并重算该回合缓存的 correct 计数。
func (s *RoomStore) UndoHistoryWord(code, callerID string, roundIndex, wordIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}
	if roundIndex < 0 || roundIndex >= len(room.RoundHistory) {
		return ErrInvalidAction
	}

	round := &room.RoundHistory[roundIndex]
	if wordIndex < 0 || wordIndex >= len(round.Words) {
		return ErrInvalidAction
	}

	entry := &round.Words[wordIndex]
	if entry.Result != RESULT_CORRECT {
		return ErrInvalidAction
	}

	room.Scores[round.ActorTeam] = max(0, room.Scores[round.ActorTeam]-1)
	entry.Result = RESULT_CANCELLED

	correct := 0
	for _, w := range round.Words {
		if w.Result == RESULT_CORRECT {
			correct++
		}
	}
	round.Correct = correct

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_STATE_SYNC)

	return nil
}

// PauseTimer / ResumeTimer 仅表演者可用。
func (s *RoomStore) PauseTimer(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.CurrentActorID != callerID {
		return ErrNotActor
	}

	if s.pauseTimerLocked(room) {
		room.broadcast(WrapResponse(RESP_TIMER_PAUSED, TimerPausedResponse{
			TimeRemaining: timeRemainingLocked(room),
		}))
	}

	return nil
}

func (s *RoomStore) ResumeTimer(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.CurrentActorID != callerID {
		return ErrNotActor
	}

	if s.resumeTimerLocked(room) {
		room.broadcast(WrapResponse(RESP_TIMER_RESUMED, TimerResumedResponse{
			TimeRemaining: timeRemainingLocked(room),
			RoundEndsAt:   room.RoundEndsAt.UnixMilli(),
			ServerTime:    time.Now().UnixMilli(),
		}))
	}

	return nil
}

// finalizeRoundLocked 把进行中的回合折叠进历史并回到 roundSetup。
// 没有表演者也没有任何记录时只做状态迁移。
func (s *RoomStore) finalizeRoundLocked(room *Room) {
	s.clearTimerLocked(room)

	if len(room.CurrentRoundWords) > 0 || room.CurrentActorID != "" {
		actorName := "Unknown"
		actorTeam := TEAM_A
		if actor := room.Players[room.CurrentActorID]; actor != nil {
			actorName = actor.Name
			actorTeam = actor.Team
		}

		words := make([]WordResult, len(room.CurrentRoundWords))
		copy(words, room.CurrentRoundWords)

		correct := 0
		for _, w := range words {
			if w.Result == RESULT_CORRECT {
				correct++
			}
		}

		room.RoundHistory = append(room.RoundHistory, RoundRecord{
			Actor:     actorName,
			ActorTeam: actorTeam,
			Words:     words,
			Correct:   correct,
		})
	}

	room.CurrentActorID = ""
	room.CurrentRoundWords = []WordResult{}
	room.RoundEndsAt = time.Time{}
	room.TimerPaused = false
	room.PauseRemaining = 0

	transition(room, STATE_ROUND_SETUP)
	s.scheduleSaveLocked()
}

// EndRound 房主手动结束回合。
func (s *RoomStore) EndRound(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}
	if room.GameState != STATE_ROUND_ACTIVE {
		return ErrInvalidAction
	}

	s.finalizeRoundLocked(room)
	s.notifyRoundEndedLocked(room)

	return nil
}

// EndGame 结束整局。回合进行中则先按同样的折叠规则结算。
func (s *RoomStore) EndGame(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}

	if room.GameState == STATE_ROUND_ACTIVE {
		s.finalizeRoundLocked(room)
	}

	if !transition(room, STATE_GAME_OVER) {
		return ErrInvalidAction
	}

	s.clearTimerLocked(room)
	room.CurrentActorID = ""
	room.CurrentRoundWords = []WordResult{}
	room.RoundEndsAt = time.Time{}
	room.TimerPaused = false
	room.PauseRemaining = 0

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_GAME_OVER)

	zap.L().Info("游戏结束", zap.String("room_code", code))

	return nil
}

// ResetGame 从 gameOver（或 roundSetup）回到 lobby，清空整局数据。
func (s *RoomStore) ResetGame(code, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}

	if !transition(room, STATE_LOBBY) {
		return ErrInvalidAction
	}

	s.clearTimerLocked(room)
	room.Deck = []string{}
	room.DeckIndex = 0
	room.CurrentActorID = ""
	room.RoundHistory = []RoundRecord{}
	room.Scores = map[string]int{TEAM_A: 0, TEAM_B: 0}
	room.CurrentRoundWords = []WordResult{}
	room.RoundEndsAt = time.Time{}
	room.TimerPaused = false
	room.PauseRemaining = 0

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_GAME_RESET)

	return nil
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for team, score := range scores {
		out[team] = score
	}

	return out
}
