package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 前端静态文件目录
	StaticDir string `mapstructure:"static_dir"`

	// 管理员口令，用于换取管理令牌
	AdminPassword string `mapstructure:"admin_password"`

	// 持久化文件路径
	RoomsFile       string `mapstructure:"rooms_file"`
	BannedWordsFile string `mapstructure:"banned_words_file"`

	// 断线宽限期（秒），超时后彻底移除玩家
	ReconnectGraceSec int `mapstructure:"reconnect_grace_sec"`
	// 持久化防抖窗口（秒）
	SaveDebounceSec int `mapstructure:"save_debounce_sec"`

	// 表演者断线时是否暂停回合计时器
	PauseOnActorDisconnect bool `mapstructure:"pause_on_actor_disconnect"`
}

func (c *AppConfig) ReconnectGrace() time.Duration {
	return time.Duration(c.ReconnectGraceSec) * time.Second
}

func (c *AppConfig) SaveDebounce() time.Duration {
	return time.Duration(c.SaveDebounceSec) * time.Second
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	// 未配置项的缺省值
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "./public")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("rooms_file", "rooms.json")
	v.SetDefault("banned_words_file", "bannedWords.json")
	v.SetDefault("reconnect_grace_sec", 600)
	v.SetDefault("save_debounce_sec", 3)
	v.SetDefault("pause_on_actor_disconnect", false)

	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	return &config
}
