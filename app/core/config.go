package core

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store/redisstore"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/ai/openai"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/igot"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

type Config struct {
	Addr    string `toml:"addr"`
	AppName string `toml:"app_name"`

	Log LogConfig `toml:"log"`

	Redis redisstore.Config `toml:"redis"`
	AI    openai.Config     `toml:"ai"`
	Igot  igot.Config       `toml:"igot"`

	// RateLimit is requests per second per client.
	RateLimit int `toml:"rate_limit"`
}

type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// LoadBaseConfigFromENV builds a config purely from KB_* variables, for
// container deployments without a config file.
func LoadBaseConfigFromENV() Config {
	cfg := Config{}
	cfg.FromENV()
	return cfg
}

// MustLoadBaseConfig reads the TOML file and applies KB_* env overrides
// on top. Env always wins.
func MustLoadBaseConfig(path string) Config {
	cfg := Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			panic(err)
		}
	}
	cfg.FromENV()
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.AppName == "" {
		cfg.AppName = types.DEFAULT_APP_NAME
	}
	return cfg
}

func (c *Config) FromENV() {
	loadEnv(&c.Addr, "KB_SERVICE_ADDR")
	loadEnv(&c.AppName, "KB_APP_NAME")
	loadEnv(&c.Log.Path, "KB_LOG_PATH")
	loadEnv(&c.Log.Level, "KB_LOG_LEVEL")

	loadEnv(&c.Redis.Address, "KB_REDIS_ADDRESS")
	loadEnv(&c.Redis.Password, "KB_REDIS_PASSWORD")
	loadEnvInt(&c.Redis.DB, "KB_REDIS_DB")

	loadEnv(&c.AI.Token, "KB_AI_TOKEN")
	loadEnv(&c.AI.Endpoint, "KB_AI_ENDPOINT")
	loadEnv(&c.AI.ChatModel, "KB_AI_CHAT_MODEL")
	loadEnv(&c.AI.EmbeddingModel, "KB_AI_EMBEDDING_MODEL")
	loadEnv(&c.AI.Lang, "KB_AI_LANG")

	loadEnv(&c.Igot.Endpoint, "KB_IGOT_ENDPOINT")
	loadEnv(&c.Igot.APIKey, "KB_IGOT_API_KEY")
	loadEnvInt(&c.Igot.Timeout, "KB_IGOT_TIMEOUT_SECOND")

	loadEnvInt(&c.RateLimit, "KB_RATE_LIMIT")
}

func loadEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func loadEnvInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
