package state

import (
	"github.com/vovani/why-are-you-like-this/internal/config"
	"github.com/vovani/why-are-you-like-this/internal/service/game"
	"github.com/vovani/why-are-you-like-this/internal/service/words"
)

type AppState struct {
	Cfg     *config.AppConfig
	Store   *game.RoomStore
	BanList *words.BanList
}

func NewAppState(
	cfg *config.AppConfig,
	store *game.RoomStore,
	banList *words.BanList,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		Store:   store,
		BanList: banList,
	}
}
