package config

// Configuration keys, as dotted koanf paths.
const (
	KeyAppName = "app.name"
	KeyAppEnv  = "app.env"

	KeyLogLevel  = "log.level"
	KeyLogPretty = "log.pretty"

	KeySearchURL          = "es.url"
	KeySearchLiveIndexing = "es.live_indexing"
	KeySearchIndexPrefix  = "es.index_prefix"
	KeySearchIndexes      = "es.indexes"
	KeySearchWriteIndexes = "es.write_indexes"

	KeyTasksAlwaysEager = "celery.always_eager"
	KeyTasksBrokerURL   = "celery.broker_url"
	KeyTasksQueue       = "celery.queue"

	KeyRedisBackends = "redis.backends"

	KeyStage = "stage"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// EnvPrefix is the prefix of environment variables read by Load.
// A double underscore separates path segments:
// KITSUNE_ES__INDEX_PREFIX sets es.index_prefix.
const EnvPrefix = "KITSUNE_"
