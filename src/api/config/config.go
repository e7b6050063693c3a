package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN      string
	RedisURL      string
	JWTSecret     string
	Port          string
	SweepInterval int // seconds
	EnableSSL     bool
	SSLCert       string
	SSLKey        string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	si, _ := strconv.Atoi(getenv("SWEEP_INTERVAL", "120"))
	ssl, _ := strconv.ParseBool(getenv("ENABLE_SSL", "false"))
	return Config{
		MySQLDSN:      getenv("MYSQL_DSN", "dev:test@tcp(localhost:3306)/guardlink?parseTime=true"),
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:     getenv("JWT_SECRET", ""),
		Port:          getenv("PORT", "8080"),
		SweepInterval: si,
		EnableSSL:     ssl,
		SSLCert:       os.Getenv("SSL_CERT"),
		SSLKey:        os.Getenv("SSL_KEY"),
	}
}
