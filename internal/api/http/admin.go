package http

import (
	"strings"
	"sync"
	"time"

	"github.com/vovani/why-are-you-like-this/internal/state"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// 管理令牌有效期
const adminTokenTTL = 24 * time.Hour

// TokenStore 保存已签发的管理令牌，单实例内存即可。
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]struct{}),
	}
}

func (ts *TokenStore) Issue() string {
	token := uuid.NewString()

	ts.mu.Lock()
	ts.tokens[token] = struct{}{}
	ts.mu.Unlock()

	time.AfterFunc(adminTokenTTL, func() {
		ts.Revoke(token)
	})

	return token
}

func (ts *TokenStore) Valid(token string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	_, ok := ts.tokens[token]

	return ok
}

func (ts *TokenStore) Revoke(token string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	delete(ts.tokens, token)
}

// bearerToken 从 Authorization 头或请求体里取令牌。
func bearerToken(ctx iris.Context) string {
	auth := ctx.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := ctx.ReadJSON(&body); err == nil {
		return body.Token
	}

	return ""
}

func AdminLogin(appState *state.AppState, tokens *TokenStore) iris.Handler {
	return func(ctx iris.Context) {
		var req struct {
			Password string `json:"password"`
		}

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "请求参数无效"})
			return
		}

		if req.Password != appState.Cfg.AdminPassword {
			ctx.StatusCode(iris.StatusUnauthorized)
			ctx.JSON(iris.Map{"success": false, "message": "口令错误"})
			return
		}

		token := tokens.Issue()

		zap.L().Info("管理员登录成功")

		ctx.JSON(iris.Map{"success": true, "token": token})
	}
}

func AdminVerify(tokens *TokenStore) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(iris.Map{"valid": tokens.Valid(bearerToken(ctx))})
	}
}

func AdminLogout(tokens *TokenStore) iris.Handler {
	return func(ctx iris.Context) {
		tokens.Revoke(bearerToken(ctx))
		ctx.JSON(iris.Map{"success": true})
	}
}

func AdminRooms(appState *state.AppState, tokens *TokenStore) iris.Handler {
	return func(ctx iris.Context) {
		if !tokens.Valid(bearerToken(ctx)) {
			ctx.StatusCode(iris.StatusUnauthorized)
			ctx.JSON(iris.Map{"error": "需要管理员令牌"})
			return
		}

		ctx.JSON(appState.Store.AdminOverview())
	}
}

func AdminCloseRoom(appState *state.AppState, tokens *TokenStore) iris.Handler {
	return func(ctx iris.Context) {
		var req struct {
			Token    string `json:"token"`
			RoomCode string `json:"room_code"`
		}

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "请求参数无效"})
			return
		}

		token := req.Token
		if auth := ctx.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}

		if !tokens.Valid(token) {
			ctx.StatusCode(iris.StatusUnauthorized)
			ctx.JSON(iris.Map{"error": "需要管理员令牌"})
			return
		}

		if err := appState.Store.AdminCloseRoom(req.RoomCode); err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{"error": err.Error()})
			return
		}

		zap.L().Info("管理员关闭房间", zap.String("room_code", req.RoomCode))

		ctx.JSON(iris.Map{"success": true, "room_code": req.RoomCode})
	}
}
