package game

import (
	"encoding/json"
)

// 客户端请求事件
const (
	REQ_CREATE_ROOM       = "create-room"
	REQ_JOIN_ROOM         = "join-room"
	REQ_REJOIN            = "rejoin"
	REQ_MOVE_PLAYER       = "move-player"
	REQ_TRANSFER_HOST     = "transfer-host"
	REQ_SET_MAX_SKIPS     = "set-max-skips"
	REQ_START_GAME        = "start-game"
	REQ_START_ROUND       = "start-round"
	REQ_MARK_CORRECT      = "mark-correct"
	REQ_MARK_SKIP         = "mark-skip"
	REQ_REMOVE_WORD       = "remove-word"
	REQ_PAUSE_TIMER       = "pause-timer"
	REQ_RESUME_TIMER      = "resume-timer"
	REQ_UNDO_CORRECT      = "undo-correct"
	REQ_UNDO_HISTORY_WORD = "undo-history-word"
	REQ_END_ROUND         = "end-round"
	REQ_FORCE_END_ROUND   = "force-end-round"
	REQ_END_GAME          = "end-game"
	REQ_RESET_GAME        = "reset-game"
	REQ_LEAVE_ROOM        = "leave-room"
	REQ_HEARTBEAT         = "heartbeat"
)

// 服务端响应事件
const (
	RESP_ERROR = "error"

	RESP_ROOM_CREATED        = "room-created"
	RESP_ROOM_JOINED         = "room-joined"
	RESP_RECONNECTED         = "reconnected"
	RESP_REJOIN_FAILED       = "rejoin-failed"
	RESP_STATE_SYNC          = "state-sync"
	RESP_GAME_STARTED        = "game-started"
	RESP_ROUND_STARTED       = "round-started"
	RESP_WORD_RESULT         = "word-result"
	RESP_WORD_UNDONE         = "word-undone"
	RESP_SKIP_DENIED         = "skip-denied"
	RESP_WORD_REMOVED        = "word-removed"
	RESP_TIMER_PAUSED        = "timer-paused"
	RESP_TIMER_RESUMED       = "timer-resumed"
	RESP_ROUND_ENDED         = "round-ended"
	RESP_GAME_OVER           = "game-over"
	RESP_GAME_RESET          = "game-reset"
	RESP_PLAYER_JOINED       = "player-joined"
	RESP_PLAYER_LEFT         = "player-left"
	RESP_PLAYER_DISCONNECTED = "player-disconnected"
	RESP_PLAYER_RECONNECTED  = "player-reconnected"
	RESP_ROOM_CLOSED         = "room-closed"
	RESP_HEARTBEAT_ACK       = "heartbeat-ack"
)

type RequestWrapper struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ResponseWrapper struct {
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
	ErrMsg string `json:"error_message,omitempty"`
}

func WrapResponse(event string, data any) ResponseWrapper {
	return ResponseWrapper{
		Event: event,
		Data:  data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		Event:  RESP_ERROR,
		ErrMsg: errMsg,
	}
}

// 请求载荷

type CreateRoomRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type JoinRoomRequest struct {
	RoomCode   string `json:"room_code"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type RejoinRequest struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type MovePlayerRequest struct {
	TargetPlayerID string `json:"target_player_id"`
	NewTeam        string `json:"new_team"`
}

type TransferHostRequest struct {
	NewHostID string `json:"new_host_id"`
}

type SetMaxSkipsRequest struct {
	MaxSkips int `json:"max_skips"`
}

type StartGameRequest struct {
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

type StartRoundRequest struct {
	ActorID       string `json:"actor_id"`
	TimerDuration int    `json:"timer_duration"`
}

type UndoCorrectRequest struct {
	WordIndex int `json:"word_index"`
}

type UndoHistoryWordRequest struct {
	RoundIndex int `json:"round_index"`
	WordIndex  int `json:"word_index"`
}
