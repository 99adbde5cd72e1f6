package main

type (
	ServerConfig struct {
		Environment string `env:"ENVIRONMENT" env-default:"development"`
		Port        string `env:"PORT" env-default:"8080"`

		SentryDSN string `env:"SENTRY_DSN"`

		// TracesBucketURL is a gocloud blob URL; file:// buckets are the
		// default so the server works against a plain directory.
		TracesBucketURL string `env:"TRACES_BUCKET_URL" env-default:"file:///var/lib/wtviz/traces?create_dir=1"`
	}
)
