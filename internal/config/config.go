package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		OwnerID          int64    `env:"OWNER_ID,required"`
		BotAdminIDs      []int64  `env:"BOT_ADMIN_IDS"`
		DefaultLanguage  string   `env:"LANG,default=en"`
		EnabledHandlers  []string `env:"HANDLERS,default=globalban,commands,moderator,persona"`
		LogLevel         int      `env:"LOG_LEVEL,default=2"`
		DotPath          string   `env:"DOT_PATH,default=~/.masterbot"`
		MetricsAddr      string   `env:"METRICS_ADDR,default=:2112"`
		LLM              LLM
		Moderation       Moderation
	}

	LLM struct {
		APIKey  string `env:"LLM_API_KEY"`
		Model   string `env:"LLM_API_MODEL,default=gpt-4o-mini"`
		BaseURL string `env:"LLM_API_URL,default=https://api.openai.com/v1"`
		Type    string `env:"LLM_API_TYPE,default=openai"`

		RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT,default=20s"`
	}

	Moderation struct {
		DefaultMuteDuration time.Duration `env:"MOD_DEFAULT_MUTE_DURATION,default=10m"`
		MemberScanLimit     int           `env:"MOD_MEMBER_SCAN_LIMIT,default=200"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("MB_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

// IsBotAdmin reports whether the user is the owner or one of the
// configured bot-level admin IDs.
func (c Config) IsBotAdmin(userID int64) bool {
	if userID == c.OwnerID {
		return true
	}
	for _, id := range c.BotAdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
