package game

// 管理端视图：只读的房间总览和强制关房。

type AdminRoomInfo struct {
	Code           string         `json:"code"`
	GameState      string         `json:"gameState"`
	Difficulty     string         `json:"difficulty"`
	Scores         map[string]int `json:"scores"`
	CardsRemaining int            `json:"cardsRemaining"`
	PlayerCount    int            `json:"playerCount"`
	ConnectedCount int            `json:"connectedCount"`
	Players        []PlayerView   `json:"players"`
}

type AdminStats struct {
	TotalRooms      int `json:"totalRooms"`
	TotalPlayers    int `json:"totalPlayers"`
	GamesInProgress int `json:"gamesInProgress"`
}

type AdminOverview struct {
	Rooms []AdminRoomInfo `json:"rooms"`
	Stats AdminStats      `json:"stats"`
}

func (s *RoomStore) AdminOverview() AdminOverview {
	s.mu.Lock()
	defer s.mu.Unlock()

	overview := AdminOverview{
		Rooms: make([]AdminRoomInfo, 0, len(s.rooms)),
	}

	for _, room := range s.rooms {
		info := AdminRoomInfo{
			Code:           room.Code,
			GameState:      room.GameState,
			Difficulty:     room.Difficulty,
			Scores:         copyScores(room.Scores),
			CardsRemaining: room.cardsRemaining(),
			PlayerCount:    len(room.Players),
			Players:        make([]PlayerView, 0, len(room.Players)),
		}

		for id, p := range room.Players {
			info.Players = append(info.Players, PlayerView{
				ID:        id,
				Name:      p.Name,
				Team:      p.Team,
				Connected: p.Connected,
				IsHost:    id == room.HostID,
			})

			overview.Stats.TotalPlayers++
			if p.Connected {
				info.ConnectedCount++
			}
		}

		if room.GameState != STATE_LOBBY && room.GameState != STATE_GAME_OVER {
			overview.Stats.GamesInProgress++
		}

		overview.Rooms = append(overview.Rooms, info)
	}

	overview.Stats.TotalRooms = len(overview.Rooms)

	return overview
}

// AdminCloseRoom 管理员强制关房：先通知房间内所有人，再销毁。
func (s *RoomStore) AdminCloseRoom(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.getRoomLocked(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.broadcast(WrapResponse(RESP_ROOM_CLOSED, RoomClosedResponse{
		Message: "房间已被管理员关闭",
	}))

	s.deleteRoomLocked(room.Code)

	return nil
}
