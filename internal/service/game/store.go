package game

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DeckProvider 按难度、语言给出一副乱序词卡，排除 excluded 中的词。
type DeckProvider func(difficulty, language string, excluded []string) []string

type StoreConfig struct {
	RoomsFile string
	DrawDeck  DeckProvider

	ReconnectGrace time.Duration
	SaveDebounce   time.Duration

	// 表演者断线时是否暂停回合计时器
	PauseOnActorDisconnect bool
}

// RoomStore 持有全部房间，是唯一的修改入口。
// 所有修改都在 store 锁内串行执行，对应单进程内存权威模型。
type RoomStore struct {
	mu sync.Mutex

	// 均为从 ID 到实体的映射
	rooms        map[string]*Room
	playerToRoom map[string]string

	cfg StoreConfig

	// 写后缓存状态
	dirty     bool
	saveTimer *time.Timer

	// 回合因计时器到期（含离线到期、表演者离开）结束时触发，恰好一次。
	// 回调在 store 锁内执行，不得回调 store 的公开方法。
	roundEndHandler func(roomCode string)
}

func NewRoomStore(cfg StoreConfig) *RoomStore {
	if cfg.ReconnectGrace <= 0 {
		cfg.ReconnectGrace = 10 * time.Minute
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = 3 * time.Second
	}

	return &RoomStore{
		rooms:        make(map[string]*Room),
		playerToRoom: make(map[string]string),
		cfg:          cfg,
	}
}

func (s *RoomStore) SetRoundEndHandler(handler func(roomCode string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roundEndHandler = handler
}

// Close 停掉所有运行时定时器并同步落盘，用于进程退出。
func (s *RoomStore) Close() {
	s.mu.Lock()

	for _, room := range s.rooms {
		s.clearTimerLocked(room)
		for _, p := range room.Players {
			if p.removeTimer != nil {
				p.removeTimer.Stop()
				p.removeTimer = nil
			}
		}
	}

	s.mu.Unlock()

	s.ForceSave()
}

// generateCodeLocked 生成未占用的 4 位房间号，冲突时重试。
func (s *RoomStore) generateCodeLocked() string {
	for {
		b := make([]byte, roomCodeLen)
		for i := range b {
			b[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}

		code := string(b)
		if _, exists := s.rooms[code]; !exists {
			return code
		}
	}
}

func (s *RoomStore) getRoomLocked(code string) (*Room, bool) {
	room, ok := s.rooms[strings.ToUpper(code)]
	return room, ok
}

// sanitizeName 去掉首尾空白并截断到 20 个字符。
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	runes := []rune(name)
	if len(runes) > 20 {
		runes = runes[:20]
	}

	return string(runes)
}

func newRoom(code, hostID string) *Room {
	return &Room{
		Code:    code,
		HostID:  hostID,
		Players: make(map[string]*Player),
		Teams: map[string][]string{
			TEAM_A: {},
			TEAM_B: {},
		},
		Scores: map[string]int{
			TEAM_A: 0,
			TEAM_B: 0,
		},
		GameState:         STATE_LOBBY,
		Difficulty:        "medium",
		Language:          "en",
		Deck:              []string{},
		RoundDuration:     60,
		RoundHistory:      []RoundRecord{},
		CurrentRoundWords: []WordResult{},
		MaxSkipsPerRound:  2,
	}
}

// CreateRoom 建房，创建者作为第一名玩家和房主加入并立即上线。
func (s *RoomStore) CreateRoom(playerID, playerName, socketID string, respCh chan ResponseWrapper) (string, error) {
	playerName = sanitizeName(playerName)
	if playerID == "" || playerName == "" {
		return "", ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generateCodeLocked()
	room := newRoom(code, playerID)
	s.rooms[code] = room

	s.addPlayerLocked(room, playerID, playerName)
	s.connectLocked(room, playerID, socketID, respCh)
	s.scheduleSaveLocked()

	player := room.Players[playerID]
	player.send(WrapResponse(RESP_ROOM_CREATED, RoomCreatedResponse{
		RoomCode: code,
		PlayerID: playerID,
		State:    clientStateLocked(room, playerID),
	}))

	zap.L().Info(
		"房间已创建",
		zap.String("room_code", code),
		zap.String("host", playerName),
	)

	return code, nil
}

// JoinRoom 处理加入请求。已是房间成员的 ID 走重连路径；
// 新玩家只在 lobby 阶段可以加入，按人数少的一队分配（平局进 A 队）。
func (s *RoomStore) JoinRoom(code, playerID, playerName, socketID string, respCh chan ResponseWrapper) error {
	playerName = sanitizeName(playerName)
	if playerID == "" || playerName == "" {
		return ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}

	if existing, isMember := room.Players[playerID]; isMember {
		s.reconnectLocked(room, existing, socketID, respCh)
		return nil
	}

	if room.GameState != STATE_LOBBY {
		return ErrGameInProgress
	}

	player := s.addPlayerLocked(room, playerID, playerName)
	s.connectLocked(room, playerID, socketID, respCh)
	s.scheduleSaveLocked()

	player.send(WrapResponse(RESP_ROOM_JOINED, RoomJoinedResponse{
		PlayerID: playerID,
		Team:     player.Team,
		State:    clientStateLocked(room, playerID),
	}))

	joined := WrapResponse(RESP_PLAYER_JOINED, PlayerJoinedResponse{
		PlayerID:   playerID,
		PlayerName: playerName,
		Team:       player.Team,
	})
	for id, p := range room.Players {
		if id != playerID {
			p.send(joined)
		}
	}

	s.syncAllLocked(room, RESP_STATE_SYNC)

	zap.L().Info(
		"玩家加入房间",
		zap.String("room_code", room.Code),
		zap.String("player", playerName),
		zap.String("team", player.Team),
	)

	return nil
}

// Rejoin 是断线后唯一的重连路径。
// 若重连者恰是当前表演者且计时器处于暂停（例如进程重启后），则恢复计时。
// 恢复必须发生在重连广播之前，否则所有客户端会拿到
// 一份标着暂停、实际却在倒数的陈旧快照。
func (s *RoomStore) Rejoin(code, playerID, socketID string, respCh chan ResponseWrapper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}

	player, isMember := room.Players[playerID]
	if !isMember {
		return ErrPlayerNotFound
	}

	resumed := false
	if room.GameState == STATE_ROUND_ACTIVE &&
		room.TimerPaused &&
		room.CurrentActorID == playerID {
		resumed = s.resumeTimerLocked(room)
	}

	s.reconnectLocked(room, player, socketID, respCh)

	if resumed {
		room.broadcast(WrapResponse(RESP_TIMER_RESUMED, TimerResumedResponse{
			TimeRemaining: timeRemainingLocked(room),
			RoundEndsAt:   room.RoundEndsAt.UnixMilli(),
			ServerTime:    time.Now().UnixMilli(),
		}))
	}

	return nil
}

// reconnectLocked 先同步取消宽限期移除定时器，再恢复连接态。
func (s *RoomStore) reconnectLocked(room *Room, player *Player, socketID string, respCh chan ResponseWrapper) {
	s.connectLocked(room, player.ID, socketID, respCh)
	s.scheduleSaveLocked()

	player.send(WrapResponse(RESP_RECONNECTED, ReconnectedResponse{
		PlayerID: player.ID,
		State:    clientStateLocked(room, player.ID),
	}))

	reconnected := WrapResponse(RESP_PLAYER_RECONNECTED, PlayerLeftResponse{
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})
	for id, p := range room.Players {
		if id != player.ID {
			p.send(reconnected)
		}
	}

	s.syncAllLocked(room, RESP_STATE_SYNC)

	zap.L().Info(
		"玩家重连",
		zap.String("room_code", room.Code),
		zap.String("player", player.Name),
	)
}

func (s *RoomStore) addPlayerLocked(room *Room, id, name string) *Player {
	team := TEAM_A
	if len(room.Teams[TEAM_A]) > len(room.Teams[TEAM_B]) {
		team = TEAM_B
	}

	player := &Player{
		ID:   id,
		Name: name,
		Team: team,
	}

	room.Players[id] = player
	room.Teams[team] = append(room.Teams[team], id)
	s.playerToRoom[id] = room.Code

	return player
}

func (s *RoomStore) connectLocked(room *Room, playerID, socketID string, respCh chan ResponseWrapper) {
	player, ok := room.Players[playerID]
	if !ok {
		return
	}

	if player.removeTimer != nil {
		player.removeTimer.Stop()
		player.removeTimer = nil
	}

	player.Connected = true
	player.SocketID = socketID
	player.respCh = respCh
}

// Disconnect 标记玩家离线并启动宽限期倒计时，到期后彻底移除。
func (s *RoomStore) Disconnect(code, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return
	}

	player, ok := room.Players[playerID]
	if !ok {
		return
	}

	player.Connected = false
	player.SocketID = ""
	player.respCh = nil

	roomCode := room.Code
	player.removeTimer = time.AfterFunc(s.cfg.ReconnectGrace, func() {
		s.removeAfterGrace(roomCode, playerID)
	})

	if s.cfg.PauseOnActorDisconnect &&
		room.GameState == STATE_ROUND_ACTIVE &&
		room.CurrentActorID == playerID {
		s.pauseTimerLocked(room)
	}

	s.scheduleSaveLocked()

	disconnected := WrapResponse(RESP_PLAYER_DISCONNECTED, PlayerLeftResponse{
		PlayerID:   playerID,
		PlayerName: player.Name,
	})
	for id, p := range room.Players {
		if id != playerID {
			p.send(disconnected)
		}
	}

	s.syncAllLocked(room, RESP_STATE_SYNC)

	zap.L().Info(
		"玩家断线，进入宽限期",
		zap.String("room_code", room.Code),
		zap.String("player", player.Name),
	)
}

// removeAfterGrace 是宽限期定时器的回调。
// 重连会在锁内先停掉定时器，所以这里要再确认玩家仍然离线。
func (s *RoomStore) removeAfterGrace(code, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return
	}

	player, ok := room.Players[playerID]
	if !ok || player.Connected {
		return
	}

	player.removeTimer = nil

	zap.L().Info(
		"宽限期结束，移除玩家",
		zap.String("room_code", code),
		zap.String("player", player.Name),
	)

	s.removePlayerLocked(room, playerID)
}

// LeaveRoom 处理显式离开。
func (s *RoomStore) LeaveRoom(code, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return
	}

	player, ok := room.Players[playerID]
	if !ok {
		return
	}

	name := player.Name
	survived := s.removePlayerLocked(room, playerID)

	if survived {
		room.broadcast(WrapResponse(RESP_PLAYER_LEFT, PlayerLeftResponse{
			PlayerID:   playerID,
			PlayerName: name,
		}))
		s.syncAllLocked(room, RESP_STATE_SYNC)
	}

	zap.L().Info(
		"玩家离开房间",
		zap.String("room_code", code),
		zap.String("player", name),
	)
}

// removePlayerLocked 把玩家从房间彻底移除。
// 返回 false 表示房间因此被销毁。
// 依次处理：队伍摘除、空房销毁、房主移交、表演者离场结算。
func (s *RoomStore) removePlayerLocked(room *Room, playerID string) bool {
	player, ok := room.Players[playerID]
	if !ok {
		return true
	}

	if player.removeTimer != nil {
		player.removeTimer.Stop()
		player.removeTimer = nil
	}

	teamList := room.Teams[player.Team]
	for i, id := range teamList {
		if id == playerID {
			room.Teams[player.Team] = append(teamList[:i], teamList[i+1:]...)
			break
		}
	}

	delete(room.Players, playerID)
	delete(s.playerToRoom, playerID)

	if len(room.Players) == 0 {
		s.deleteRoomLocked(room.Code)
		return false
	}

	if room.HostID == playerID {
		newHost := ""
		for id, p := range room.Players {
			if p.Connected {
				newHost = id
				break
			}
		}
		if newHost == "" {
			for id := range room.Players {
				newHost = id
				break
			}
		}
		room.HostID = newHost

		zap.L().Info(
			"房主已移交",
			zap.String("room_code", room.Code),
			zap.String("new_host", newHost),
		)
	}

	if room.GameState == STATE_ROUND_ACTIVE && room.CurrentActorID == playerID {
		s.finalizeRoundLocked(room)
		s.notifyRoundEndedLocked(room)
	}

	s.scheduleSaveLocked()

	return true
}

func (s *RoomStore) deleteRoomLocked(code string) {
	room, ok := s.rooms[code]
	if !ok {
		return
	}

	s.clearTimerLocked(room)

	for id, p := range room.Players {
		if p.removeTimer != nil {
			p.removeTimer.Stop()
			p.removeTimer = nil
		}
		delete(s.playerToRoom, id)
	}

	delete(s.rooms, code)
	s.scheduleSaveLocked()

	zap.L().Info("房间已销毁", zap.String("room_code", code))
}

// MovePlayer 房主在 lobby 阶段把玩家换队。目标已在该队时是无操作。
func (s *RoomStore) MovePlayer(code, callerID, targetID, newTeam string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}
	if room.GameState != STATE_LOBBY {
		return ErrInvalidAction
	}
	if newTeam != TEAM_A && newTeam != TEAM_B {
		return ErrInvalidAction
	}

	player, ok := room.Players[targetID]
	if !ok {
		return ErrPlayerNotFound
	}
	if player.Team == newTeam {
		return nil
	}

	oldList := room.Teams[player.Team]
	for i, id := range oldList {
		if id == targetID {
			room.Teams[player.Team] = append(oldList[:i], oldList[i+1:]...)
			break
		}
	}

	room.Teams[newTeam] = append(room.Teams[newTeam], targetID)
	player.Team = newTeam

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_STATE_SYNC)

	return nil
}

func (s *RoomStore) TransferHost(code, callerID, newHostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}
	if _, ok := room.Players[newHostID]; !ok {
		return ErrPlayerNotFound
	}

	room.HostID = newHostID

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_STATE_SYNC)

	return nil
}

func (s *RoomStore) SetMaxSkips(code, callerID string, maxSkips int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != callerID {
		return ErrNotHost
	}

	if maxSkips < 0 {
		maxSkips = SKIPS_UNLIMITED
	}
	room.MaxSkipsPerRound = maxSkips

	s.scheduleSaveLocked()
	s.syncAllLocked(room, RESP_STATE_SYNC)

	return nil
}

// syncAllLocked 给每个在线玩家发送按其视角过滤后的房间快照。
func (s *RoomStore) syncAllLocked(room *Room, event string) {
	for id, p := range room.Players {
		if !p.Connected {
			continue
		}
		p.send(WrapResponse(event, StateEnvelope{
			State: clientStateLocked(room, id),
		}))
	}
}

// notifyRoundEndedLocked 广播回合结束并触发注册的监听器，恰好一次。
func (s *RoomStore) notifyRoundEndedLocked(room *Room) {
	s.syncAllLocked(room, RESP_ROUND_ENDED)

	if s.roundEndHandler != nil {
		s.roundEndHandler(room.Code)
	}
}
