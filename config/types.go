package config

import (
	"github.com/knadh/koanf/v2"
)

// Config is the resolved settings tree. The typed sections cover every key
// the override table touches; anything else is reachable through the
// accessors on the underlying koanf instance.
type Config struct {
	App    AppConfig    `koanf:"app" json:"app" yaml:"app"`
	Log    LogConfig    `koanf:"log" json:"log" yaml:"log"`
	Search SearchConfig `koanf:"es" json:"es" yaml:"es"`
	Tasks  TasksConfig  `koanf:"celery" json:"celery" yaml:"celery"`
	Redis  RedisConfig  `koanf:"redis" json:"redis" yaml:"redis"`

	// Stage reports whether this process runs on the staging environment.
	// Periodic jobs registered with scheduler.SkipOnStage do not run there.
	Stage bool `koanf:"stage" json:"stage" yaml:"stage"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name string `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Env  string `koanf:"env" json:"env" yaml:"env" validate:"oneof=development test staging production"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// SearchConfig holds search index settings.
type SearchConfig struct {
	// URL is the base URL of the search cluster.
	URL string `koanf:"url" json:"url" yaml:"url"`

	// LiveIndexing pushes documents to the index as they change.
	LiveIndexing bool `koanf:"live_indexing" json:"live_indexing" yaml:"live_indexing"`

	// IndexPrefix namespaces every physical index name.
	IndexPrefix string `koanf:"index_prefix" json:"index_prefix" yaml:"index_prefix"`

	// Indexes maps logical roles ("default", "other") to index names used for reads.
	Indexes map[string]string `koanf:"indexes" json:"indexes" yaml:"indexes"`

	// WriteIndexes maps the same roles to the index names written to.
	WriteIndexes map[string]string `koanf:"write_indexes" json:"write_indexes" yaml:"write_indexes"`
}

// TasksConfig holds task queue settings.
type TasksConfig struct {
	// AlwaysEager runs tasks synchronously in the caller instead of
	// publishing them to the broker.
	AlwaysEager bool   `koanf:"always_eager" json:"always_eager" yaml:"always_eager"`
	BrokerURL   string `koanf:"broker_url" json:"broker_url" yaml:"broker_url"`
	Queue       string `koanf:"queue" json:"queue" yaml:"queue"`
}

// RedisConfig holds key/value backend settings.
type RedisConfig struct {
	// Backends maps logical backend roles to connection URLs.
	Backends map[string]string `koanf:"backends" json:"backends" yaml:"backends"`
}
