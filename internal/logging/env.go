package logging

import (
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

// DetectEnv reads CODEHIVE_ENV and falls back to dev.
func DetectEnv() Env {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("CODEHIVE_ENV")))

	switch raw {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod":
		return EnvStage
	default:
		return EnvDev
	}
}
