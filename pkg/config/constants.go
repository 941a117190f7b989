package config

const (
	// EnvPrefix is unused by envconfig lookups (tags carry the full name) but
	// kept for Process calls that want an explicit prefix.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "REGISTRAR_DB_DSN"
	EnvDBHost = "REGISTRAR_DB_HOST"
	EnvDBUser = "REGISTRAR_DB_USER"
	EnvDBName = "REGISTRAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	// CascadeBestEffort deletes what it can and proceeds to the request row.
	CascadeBestEffort = "best_effort"
	// CascadeStrict aborts the request delete when any owned file fails.
	CascadeStrict = "strict"
)
