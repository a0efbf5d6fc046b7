package game

import (
	"time"
)

// 房间生命周期状态
const (
	STATE_LOBBY        = "lobby"
	STATE_ROUND_SETUP  = "roundSetup"
	STATE_ROUND_ACTIVE = "roundActive"
	STATE_GAME_OVER    = "gameOver"
)

// 两支队伍
const (
	TEAM_A = "A"
	TEAM_B = "B"
)

// 回合内单词的判定结果
const (
	RESULT_CORRECT   = "correct"
	RESULT_SKIP      = "skip"
	RESULT_CANCELLED = "cancelled"
)

// 负数表示本回合不限跳过次数
const SKIPS_UNLIMITED = -1

// 房间号字符集：大写字母中去掉易混淆的 I 和 O
const roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ"

const roomCodeLen = 4

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team string `json:"team"`

	// 连接态，不参与持久化
	Connected bool   `json:"-"`
	SocketID  string `json:"-"`

	respCh chan ResponseWrapper
	// 宽限期移除定时器，重连时必须先取消
	removeTimer *time.Timer
}

type WordResult struct {
	Word   string `json:"word"`
	Result string `json:"result"`
}

// RoundRecord 是结算进历史的一个回合
type RoundRecord struct {
	Actor     string       `json:"actor"`
	ActorTeam string       `json:"actorTeam"`
	Words     []WordResult `json:"words"`
	Correct   int          `json:"correct"`
}

// Room 是聚合根，所有修改都必须在持有 store 锁时进行
type Room struct {
	Code    string
	HostID  string
	Players map[string]*Player
	// 队伍成员 ID 的有序列表，键为 TEAM_A / TEAM_B
	Teams  map[string][]string
	Scores map[string]int

	GameState  string
	Difficulty string
	Language   string

	Deck      []string
	DeckIndex int

	CurrentActorID string

	// 计时器字段：RoundEndsAt 为零值表示没有进行中的倒计时
	RoundDuration  int
	RoundEndsAt    time.Time
	TimerPaused    bool
	PauseRemaining time.Duration

	RoundHistory      []RoundRecord
	CurrentRoundWords []WordResult

	MaxSkipsPerRound   int
	SkipsUsedThisRound int

	// 运行时句柄，不参与持久化
	roundEndTimer *time.Timer
	// 每次调度或取消时递增；过期回调若发现代数不匹配则直接放弃
	timerGen uint64
}

// currentWord 返回游标处的词，牌堆耗尽时返回 ("", false)。
func (r *Room) currentWord() (string, bool) {
	if r.DeckIndex >= len(r.Deck) {
		return "", false
	}

	return r.Deck[r.DeckIndex], true
}

func (r *Room) cardsRemaining() int {
	return len(r.Deck) - r.DeckIndex
}

// skipsRemaining 返回剩余跳过次数，不限次数时返回哨兵值。
func (r *Room) skipsRemaining() int {
	if r.MaxSkipsPerRound < 0 {
		return SKIPS_UNLIMITED
	}

	return max(0, r.MaxSkipsPerRound-r.SkipsUsedThisRound)
}

// broadcast 把响应推给房间里所有在线玩家。
// 通道已满时丢弃而不是阻塞，避免卡住整个房间的处理。
func (r *Room) broadcast(resp ResponseWrapper) {
	for _, p := range r.Players {
		p.send(resp)
	}
}

func (p *Player) send(resp ResponseWrapper) {
	if p.respCh == nil {
		return
	}

	select {
	case p.respCh <- resp:
	default:
	}
}
