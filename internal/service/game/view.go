package game

import (
	"time"
)

// PlayerView 是玩家在快照里的公开形态。
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"isHost"`
}

// ClientState 是发给客户端的净化快照。
// currentWord 只出现在发给当前表演者的那一份里。
type ClientState struct {
	Code             string              `json:"code"`
	HostID           string              `json:"hostId"`
	Players          []PlayerView        `json:"players"`
	Teams            map[string][]string `json:"teams"`
	Scores           map[string]int      `json:"scores"`
	GameState        string              `json:"gameState"`
	Difficulty       string              `json:"difficulty"`
	Language         string              `json:"language"`
	CurrentActorID   string              `json:"currentActorId,omitempty"`
	CurrentActorName string              `json:"currentActorName,omitempty"`

	// 基于时间戳的计时信息，供客户端自行校正漂移
	TimeRemaining    int    `json:"timeRemaining"`
	RoundEndsAt      *int64 `json:"roundEndsAt"`
	TimerPaused      bool   `json:"timerPaused"`
	PauseRemainingMs int64  `json:"pauseRemainingMs,omitempty"`
	ServerTime       int64  `json:"serverTime"`

	RoundHistory      []RoundRecord `json:"roundHistory"`
	CardsRemaining    int           `json:"cardsRemaining"`
	MaxSkipsPerRound  int           `json:"maxSkipsPerRound"`
	SkipsRemaining    int           `json:"skipsRemaining"`
	CurrentRoundWords []WordResult  `json:"currentRoundWords"`

	CurrentWord string `json:"currentWord,omitempty"`
}

// clientStateLocked 是纯投影：(room, viewerID) → 快照。
// 绝不为了隐藏字段去改共享状态。
func clientStateLocked(room *Room, viewerID string) ClientState {
	players := make([]PlayerView, 0, len(room.Players))
	for id, p := range room.Players {
		players = append(players, PlayerView{
			ID:        id,
			Name:      p.Name,
			Team:      p.Team,
			Connected: p.Connected,
			IsHost:    id == room.HostID,
		})
	}

	teams := make(map[string][]string, 2)
	for _, team := range []string{TEAM_A, TEAM_B} {
		names := make([]string, 0, len(room.Teams[team]))
		for _, id := range room.Teams[team] {
			if p, ok := room.Players[id]; ok {
				names = append(names, p.Name)
			} else {
				names = append(names, "?")
			}
		}
		teams[team] = names
	}

	state := ClientState{
		Code:           room.Code,
		HostID:         room.HostID,
		Players:        players,
		Teams:          teams,
		Scores:         copyScores(room.Scores),
		GameState:      room.GameState,
		Difficulty:     room.Difficulty,
		Language:       room.Language,
		CurrentActorID: room.CurrentActorID,

		TimeRemaining: timeRemainingLocked(room),
		TimerPaused:   room.TimerPaused,
		ServerTime:    time.Now().UnixMilli(),

		RoundHistory:      append([]RoundRecord{}, room.RoundHistory...),
		CardsRemaining:    room.cardsRemaining(),
		MaxSkipsPerRound:  room.MaxSkipsPerRound,
		SkipsRemaining:    room.skipsRemaining(),
		CurrentRoundWords: append([]WordResult{}, room.CurrentRoundWords...),
	}

	if actor, ok := room.Players[room.CurrentActorID]; ok {
		state.CurrentActorName = actor.Name
	}

	if !room.TimerPaused && !room.RoundEndsAt.IsZero() {
		endsAt := room.RoundEndsAt.UnixMilli()
		state.RoundEndsAt = &endsAt
	}
	if room.TimerPaused {
		state.PauseRemainingMs = room.PauseRemaining.Milliseconds()
	}

	// 唯一的隐私敏感字段：当前词只给表演者
	if viewerID == room.CurrentActorID {
		if word, ok := room.currentWord(); ok {
			state.CurrentWord = word
		}
	}

	return state
}

// ClientState 返回指定观察者视角的快照，查不到房间或玩家时返回错误。
func (s *RoomStore) ClientState(code, viewerID string) (ClientState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ClientState{}, ErrRoomNotFound
	}

	return clientStateLocked(room, viewerID), nil
}

// RoomLanguage 返回房间当前使用的语言，房间不存在时回退到英语。
func (s *RoomStore) RoomLanguage(code string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return "en"
	}

	return room.Language
}

// 响应载荷

type StateEnvelope struct {
	State ClientState `json:"state"`
}

type RoomCreatedResponse struct {
	RoomCode string      `json:"roomCode"`
	PlayerID string      `json:"playerId"`
	State    ClientState `json:"state"`
}

type RoomJoinedResponse struct {
	PlayerID string      `json:"playerId"`
	Team     string      `json:"team"`
	State    ClientState `json:"state"`
}

type ReconnectedResponse struct {
	PlayerID string      `json:"playerId"`
	State    ClientState `json:"state"`
}

type PlayerJoinedResponse struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Team       string `json:"team"`
}

type PlayerLeftResponse struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type WordResultResponse struct {
	Word           string         `json:"word"`
	Result         string         `json:"result"`
	Scores         map[string]int `json:"scores"`
	NextWord       *string        `json:"nextWord,omitempty"`
	TimeRemaining  int            `json:"timeRemaining"`
	SkipsRemaining *int           `json:"skipsRemaining,omitempty"`
}

type WordUndoneResponse struct {
	Word              string         `json:"word"`
	WordIndex         int            `json:"wordIndex"`
	Scores            map[string]int `json:"scores"`
	CurrentRoundWords []WordResult   `json:"currentRoundWords"`
	TimeRemaining     int            `json:"timeRemaining"`
}

type SkipDeniedResponse struct {
	Message   string `json:"message"`
	SkipsUsed int    `json:"skipsUsed"`
	MaxSkips  int    `json:"maxSkips"`
}

type WordRemovedResponse struct {
	Word          string  `json:"word"`
	NextWord      *string `json:"nextWord,omitempty"`
	TimeRemaining int     `json:"timeRemaining"`
}

type TimerPausedResponse struct {
	TimeRemaining int `json:"timeRemaining"`
}

type TimerResumedResponse struct {
	TimeRemaining int   `json:"timeRemaining"`
	RoundEndsAt   int64 `json:"roundEndsAt"`
	ServerTime    int64 `json:"serverTime"`
}

type RoomClosedResponse struct {
	Message string `json:"message"`
}
