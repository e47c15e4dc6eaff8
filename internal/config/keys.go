package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "VETWATCH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.auth_token", typ: kString, env: "VETWATCH_AUTH_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.AuthToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.AuthToken },
	},
	{
		key: "gateway.base_url", typ: kString, env: "VETWATCH_GATEWAY_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Gateway.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Gateway.BaseURL },
	},
	{
		key: "gateway.api_key", typ: kString, env: "VETWATCH_GATEWAY_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Gateway.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gateway.APIKey },
	},
	{
		key: "gateway.model", typ: kString, env: "VETWATCH_GATEWAY_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gateway.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Gateway.Model },
	},
	{
		key: "gateway.temperature", typ: kFloat, env: "VETWATCH_GATEWAY_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Gateway.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Gateway.Temperature },
	},
	{
		key: "gateway.max_tokens", typ: kInt, env: "VETWATCH_GATEWAY_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Gateway.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Gateway.MaxTokens },
	},
	{
		key: "storage.data_dir", typ: kString, env: "VETWATCH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "VETWATCH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

// KV is one displayable configuration entry.
type KV struct {
	Key   string
	Value string
}

// ShowAll returns the configuration as key/value pairs in definition order.
// Secret values are masked.
func ShowAll(cfg Config) []KV {
	out := make([]KV, 0, len(specs))
	for _, s := range specs {
		v := s.extract(cfg)
		val := fmt.Sprintf("%v", v)
		if s.secret && val != "" {
			val = "********"
		}
		out = append(out, KV{Key: s.key, Value: val})
	}
	return out
}
