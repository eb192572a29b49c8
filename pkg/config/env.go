package config

// EnvPrefix is the prefix envconfig strips from every variable name.
const EnvPrefix = "voltaria"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "VOLTARIA_DB_DSN"
	EnvDBHost = "VOLTARIA_DB_HOST"
	EnvDBUser = "VOLTARIA_DB_USER"
	EnvDBName = "VOLTARIA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
