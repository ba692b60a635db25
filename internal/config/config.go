package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string // enrollment document files

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	SweepIntervalSec int // expired-session sweep cadence

	CORSOriginsDev  []string
	CORSOriginsProd []string
}

func FromEnv() Config {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	return Config{
		Mode:             mode,
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		BlobBasePath:     envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:       envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		SweepIntervalSec: envInt("SWEEP_INTERVAL_SEC", 60),
		CORSOriginsDev:   csvOr("CORS_ORIGINS_DEV", "http://localhost:3000,http://localhost:3010"),
		CORSOriginsProd:  csvOr("CORS_ORIGINS_PROD", "https://admissions.opencampus.dev"),
	}
}

func (c Config) CORSOrigins() []string {
	if c.Mode == ModeProd {
		return c.CORSOriginsProd
	}
	return c.CORSOriginsDev
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
