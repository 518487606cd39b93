package config

const (
	EnvPrefix = "TCGC"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TCGC_DB_DSN"
	EnvDBHost = "TCGC_DB_HOST"
	EnvDBUser = "TCGC_DB_USER"
	EnvDBName = "TCGC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
