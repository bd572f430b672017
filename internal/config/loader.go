package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "SYMBIOLINK"

// newViper builds a Viper instance with YAML input, the SYMBIOLINK_ env
// prefix and a "." → "_" key replacer, so "cache.redis.addr" resolves to
// SYMBIOLINK_CACHE_REDIS_ADDR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers the scalar keys most often overridden in container
// deployments so that AutomaticEnv sees them even when the file omits them.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.host", "server.port", "server.mode",
		"log.level", "log.format",
		"metrics.enabled",
		"cache.redis.enabled", "cache.redis.addr", "cache.redis.password", "cache.redis.db",
		"messaging.kafka.enabled", "messaging.kafka.brokers", "messaging.kafka.topic",
		"graph.neo4j.enabled", "graph.neo4j.uri", "graph.neo4j.user", "graph.neo4j.password",
		"analysis.max_entities", "analysis.default_max_hops",
		"engine.strict", "engine.estimator.seed", "engine.matching.connection_threshold",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges SYMBIOLINK_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from SYMBIOLINK_* environment variables and
// defaults, with no config file.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch re-parses configPath whenever it changes on disk and passes the new
// Config to onChange. Invalid revisions are reported to onError (which may be
// nil) and otherwise ignored. Watch does not block.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on error. Intended for main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
