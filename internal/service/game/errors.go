package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("房间不存在")
	ErrPlayerNotFound = errors.New("玩家不在房间中")
	ErrNotHost        = errors.New("只有房主可以执行该操作")
	ErrNotActor       = errors.New("只有当前表演者可以执行该操作")
	ErrGameInProgress = errors.New("游戏已经开始，无法加入")
	ErrInvalidAction  = errors.New("当前状态下无法执行该操作")
	ErrNameRequired   = errors.New("名字不能为空")
)
