package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/vovani/why-are-you-like-this/internal/service/game"
	"github.com/vovani/why-are-you-like-this/internal/state"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// session 对应一条 WebSocket 连接。
// playerID / roomCode 在 create/join/rejoin 成功后才会被填上。
type session struct {
	appState *state.AppState

	socketID string
	clientIP string

	playerID string
	roomCode string

	respCh chan game.ResponseWrapper
}

func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		sess := &session{
			appState: appState,
			socketID: uuid.NewString(),
			clientIP: ctx.RemoteAddr(),
			respCh:   make(chan game.ResponseWrapper, 64),
		}

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		go sess.writeLoop(conn, writeDoneCh)

		sess.readLoop(conn)

		// 读循环退出即客户端断开，转入宽限期
		if sess.playerID != "" && sess.roomCode != "" {
			zap.L().Info(
				"客户端连接断开",
				zap.String("client_ip", sess.clientIP),
				zap.String("player_id", sess.playerID),
			)
			appState.Store.Disconnect(sess.roomCode, sess.playerID)
		}
	}
}

func (sess *session) writeLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			zap.L().Debug(
				"WebSocket写入协程退出",
				zap.String("client_ip", sess.clientIP),
			)
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", sess.clientIP),
					zap.Error(err),
				)
				return
			}

		case resp, ok := <-sess.respCh:
			if !ok {
				return
			}

			if err := conn.WriteJSON(resp); err != nil {
				zap.L().Error(
					"发送消息失败",
					zap.String("client_ip", sess.clientIP),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (sess *session) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				zap.L().Error(
					"读取消息失败",
					zap.String("client_ip", sess.clientIP),
					zap.Error(err),
				)
			}

			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Error(
				"解析消息失败",
				zap.String("client_ip", sess.clientIP),
				zap.Error(err),
			)

			sess.push(game.WrapErrResponse("无效的请求格式"))

			continue
		}

		sess.dispatch(wrapper)
	}
}

func (sess *session) push(resp game.ResponseWrapper) {
	select {
	case sess.respCh <- resp:
	default:
		zap.L().Warn(
			"响应通道已满，丢弃消息",
			zap.String("client_ip", sess.clientIP),
			zap.String("event", resp.Event),
		)
	}
}

// inRoom 确认会话已经绑定到某个房间。
func (sess *session) inRoom() bool {
	return sess.playerID != "" && sess.roomCode != ""
}

func (sess *session) dispatch(wrapper game.RequestWrapper) {
	store := sess.appState.Store

	zap.L().Debug(
		"收到客户端请求",
		zap.String("client_ip", sess.clientIP),
		zap.String("event", wrapper.Event),
	)

	switch wrapper.Event {
	case game.REQ_CREATE_ROOM:
		var req game.CreateRoomRequest
		if err := json.Unmarshal(wrapper.Data, &req); err != nil {
			sess.push(game.WrapErrResponse("无效的请求格式"))
			return
		}

		code, err := store.CreateRoom(req.PlayerID, req.PlayerName, sess.socketID, sess.respCh)
		if err != nil {
			sess.push(game.WrapErrResponse(err.Error()))
			return
		}

		sess.playerID = req.PlayerID
		sess.roomCode = code

	case game.REQ_JOIN_ROOM:
		var req game.JoinRoomRequest
		if err := json.Unmarshal(wrapper.Data, &req); err != nil {
			sess.push(game.WrapErrResponse("无效的请求格式"))
			return
		}

		if err := store.JoinRoom(req.RoomCode, req.PlayerID, req.PlayerName, sess.socketID, sess.respCh); err != nil {
			sess.push(game.WrapErrResponse(err.Error()))
			return
		}

		sess.playerID = req.PlayerID
		sess.roomCode = req.RoomCode

	case game.REQ_REJOIN:
		var req game.RejoinRequest
		if err := json.Unmarshal(wrapper.Data, &req); err != nil {
			sess.push(game.WrapErrResponse("无效的请求格式"))
			return
		}

		// 重连失败意味着客户端本地的会话指针已经失效，提示其丢弃
		if err := store.Rejoin(req.RoomCode, req.PlayerID, sess.socketID, sess.respCh); err != nil {
			sess.push(game.WrapResponse(game.RESP_REJOIN_FAILED, nil))
			return
		}

		sess.playerID = req.PlayerID
		sess.roomCode = req.RoomCode

	case game.REQ_MOVE_PLAYER:
		var req game.MovePlayerRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}
		sess.reportErr(store.MovePlayer(sess.roomCode, sess.playerID, req.TargetPlayerID, req.NewTeam))

	case game.REQ_TRANSFER_HOST:
		var req game.TransferHostRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}
		sess.reportErr(store.TransferHost(sess.roomCode, sess.playerID, req.NewHostID))

	case game.REQ_SET_MAX_SKIPS:
		var req game.SetMaxSkipsRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}
		sess.reportErr(store.SetMaxSkips(sess.roomCode, sess.playerID, req.MaxSkips))

	case game.REQ_START_GAME:
		var req game.StartGameRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}

		lang := req.Language
		if lang == "" {
			lang = "en"
		}

		excluded := sess.appState.BanList.Get(lang)
		sess.reportErr(store.StartGame(sess.roomCode, sess.playerID, req.Difficulty, lang, excluded))

	case game.REQ_START_ROUND:
		var req game.StartRoundRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}
		sess.reportErr(store.StartRound(sess.roomCode, sess.playerID, req.ActorID, req.TimerDuration))

	case game.REQ_MARK_CORRECT:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.MarkCorrect(sess.roomCode, sess.playerID))

	case game.REQ_MARK_SKIP:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.MarkSkip(sess.roomCode, sess.playerID))

	case game.REQ_REMOVE_WORD:
		if !sess.requireRoom() {
			return
		}

		word, err := store.RemoveWord(sess.roomCode, sess.playerID)
		if err != nil {
			sess.reportErr(err)
			return
		}

		// 被剔除的词进屏蔽词表，影响后续所有发牌
		if word != "" {
			sess.appState.BanList.Add(store.RoomLanguage(sess.roomCode), word)
		}

	case game.REQ_PAUSE_TIMER:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.PauseTimer(sess.roomCode, sess.playerID))

	case game.REQ_RESUME_TIMER:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.ResumeTimer(sess.roomCode, sess.playerID))

	case game.REQ_UNDO_CORRECT:
		var req game.UndoCorrectRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}
		sess.reportErr(store.UndoCorrect(sess.roomCode, sess.playerID, req.WordIndex))

	case game.REQ_UNDO_HISTORY_WORD:
		var req game.UndoHistoryWordRequest
		if !sess.parseInRoom(wrapper.Data, &req) {
			return
		}
		sess.reportErr(store.UndoHistoryWord(sess.roomCode, sess.playerID, req.RoundIndex, req.WordIndex))

	case game.REQ_END_ROUND, game.REQ_FORCE_END_ROUND:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.EndRound(sess.roomCode, sess.playerID))

	case game.REQ_END_GAME:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.EndGame(sess.roomCode, sess.playerID))

	case game.REQ_RESET_GAME:
		if !sess.requireRoom() {
			return
		}
		sess.reportErr(store.ResetGame(sess.roomCode, sess.playerID))

	case game.REQ_LEAVE_ROOM:
		if !sess.inRoom() {
			return
		}

		store.LeaveRoom(sess.roomCode, sess.playerID)
		sess.playerID = ""
		sess.roomCode = ""

	case game.REQ_HEARTBEAT:
		sess.push(game.WrapResponse(game.RESP_HEARTBEAT_ACK, nil))

	default:
		zap.L().Warn(
			"未知的请求事件",
			zap.String("client_ip", sess.clientIP),
			zap.String("event", wrapper.Event),
		)
		sess.push(game.WrapErrResponse("未知的请求事件"))
	}
}

// parseInRoom 解析载荷并确认会话已绑定房间，失败时回错误响应。
func (sess *session) parseInRoom(data json.RawMessage, out any) bool {
	if !sess.requireRoom() {
		return false
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			sess.push(game.WrapErrResponse("无效的请求格式"))
			return false
		}
	}

	return true
}

func (sess *session) requireRoom() bool {
	if !sess.inRoom() {
		sess.push(game.WrapErrResponse("尚未加入任何房间"))
		return false
	}

	return true
}

// reportErr 把操作错误回给调用者本人。
// 预期内的游戏信号（跳过被拒、牌堆耗尽）不会以 error 形式出现在这里。
func (sess *session) reportErr(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, game.ErrRoomNotFound) || errors.Is(err, game.ErrPlayerNotFound) {
		zap.L().Warn(
			"请求引用了失效的房间或玩家",
			zap.String("client_ip", sess.clientIP),
			zap.Error(err),
		)
	}

	sess.push(game.WrapErrResponse(err.Error()))
}
