package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/vovani/why-are-you-like-this/internal/api/http"
	"github.com/vovani/why-are-you-like-this/internal/config"
	"github.com/vovani/why-are-you-like-this/internal/logger"
	"github.com/vovani/why-are-you-like-this/internal/service/cards"
	"github.com/vovani/why-are-you-like-this/internal/service/game"
	"github.com/vovani/why-are-you-like-this/internal/service/words"
	"github.com/vovani/why-are-you-like-this/internal/state"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 屏蔽词表
	banList := words.NewBanList(cfg.BannedWordsFile)

	// 房间存储：恢复持久化的房间并修复计时器
	store := game.NewRoomStore(game.StoreConfig{
		RoomsFile:              cfg.RoomsFile,
		DrawDeck:               cards.GetShuffledDeck,
		ReconnectGrace:         cfg.ReconnectGrace(),
		SaveDebounce:           cfg.SaveDebounce(),
		PauseOnActorDisconnect: cfg.PauseOnActorDisconnect,
	})

	store.SetRoundEndHandler(func(roomCode string) {
		zap.L().Info("回合已结束", zap.String("room_code", roomCode))
	})

	if err := store.Load(); err != nil {
		zap.L().Error("加载持久化房间失败", zap.Error(err))
	}

	// 优雅停机：收到信号后同步落盘再退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		zap.L().Info("收到退出信号", zap.String("signal", sig.String()))
		store.Close()
		os.Exit(0)
	}()

	// 组装应用状态
	appState := state.NewAppState(cfg, store, banList)

	// 启动服务器
	http.RunServer(appState)
}
