package vault

// Type represents the type of vault.
type Type string

const (
	// TypeDotEnv reads secrets from the process environment and a .env file.
	TypeDotEnv Type = "dotenv"
	// TypeFile reads secrets from a TOML, YAML or JSON secrets file.
	TypeFile Type = "file"
)
