package http

import (
	"fmt"

	"github.com/vovani/why-are-you-like-this/internal/api/http/websocket"
	"github.com/vovani/why-are-you-like-this/internal/state"

	"github.com/kataras/iris/v12"
)

func RunServer(appState *state.AppState) {
	app := iris.Default()

	app.HandleDir(
		"/",
		iris.Dir(appState.Cfg.StaticDir),
		iris.DirOptions{
			IndexName: "index.html",
			SPA:       true,
			Compress:  true,
		},
	)

	app.Get("/health", func(ctx iris.Context) {
		ctx.StatusCode(iris.StatusOK)
	})

	tokens := NewTokenStore()

	admin := app.Party("/api/admin")

	admin.Post("/login", AdminLogin(appState, tokens))
	admin.Post("/verify", AdminVerify(tokens))
	admin.Post("/logout", AdminLogout(tokens))
	admin.Get("/rooms", AdminRooms(appState, tokens))
	admin.Post("/rooms/close", AdminCloseRoom(appState, tokens))

	app.Get("/ws", websocket.JoinGame(appState))

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	app.Listen(addr)
}
