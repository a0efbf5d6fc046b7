// Package words 维护按语言划分的屏蔽词表。
// 被表演者永久移除的词会写入这里，后续发牌时被排除。
package words

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"
)

type BanList struct {
	mu sync.Mutex

	path string
	// 语言 → 屏蔽词列表
	words map[string][]string
}

func NewBanList(path string) *BanList {
	bl := &BanList{
		path:  path,
		words: make(map[string][]string),
	}

	bl.load()

	return bl
}

func (bl *BanList) load() {
	data, err := os.ReadFile(bl.path)
	if err != nil {
		// 文件不存在属于正常情况，从空表开始
		if !os.IsNotExist(err) {
			zap.L().Warn("读取屏蔽词表失败", zap.String("path", bl.path), zap.Error(err))
		}
		return
	}

	if err := json.Unmarshal(data, &bl.words); err != nil {
		zap.L().Error("解析屏蔽词表失败", zap.String("path", bl.path), zap.Error(err))
		bl.words = make(map[string][]string)
	}
}

// Get 返回指定语言的屏蔽词副本。
func (bl *BanList) Get(lang string) []string {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	list := bl.words[lang]
	out := make([]string, len(list))
	copy(out, list)

	return out
}

// Add 将词加入指定语言的屏蔽词表并落盘。重复添加是无操作。
func (bl *BanList) Add(lang, word string) {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	for _, w := range bl.words[lang] {
		if w == word {
			return
		}
	}

	bl.words[lang] = append(bl.words[lang], word)
	bl.save()

	zap.L().Info(
		"已加入屏蔽词",
		zap.String("lang", lang),
		zap.String("word", word),
	)
}

// save 持有锁时调用。写失败只记录日志，内存中的词表仍然有效。
func (bl *BanList) save() {
	data, err := json.MarshalIndent(bl.words, "", "  ")
	if err != nil {
		zap.L().Error("序列化屏蔽词表失败", zap.Error(err))
		return
	}

	if err := os.WriteFile(bl.path, data, 0o644); err != nil {
		zap.L().Error("保存屏蔽词表失败", zap.String("path", bl.path), zap.Error(err))
	}
}
