package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "BLOOMSHOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "BLOOMSHOP_DB_DSN"
	EnvDBHost = "BLOOMSHOP_DB_HOST"
	EnvDBUser = "BLOOMSHOP_DB_USER"
	EnvDBName = "BLOOMSHOP_DB_NAME"

	EnvSquareAccessToken    = "BLOOMSHOP_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID     = "BLOOMSHOP_SQUARE_LOCATION_ID"
	EnvPaymentWebhookSecret = "BLOOMSHOP_PAYMENT_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
