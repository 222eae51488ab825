package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultAdminPassword = "password"

type Config struct {
	Addr          string
	DBPath        string
	AdminUser     string
	AdminPass     string
	SecureCookies bool
	BcryptCost    int
	LogLevel      string

	// AdminPassDefaulted is set when ADMIN_PASS was missing and the
	// well-known default is in use.
	AdminPassDefaulted bool
}

// loadConfig reads .env, when present, and then the process environment.
func loadConfig() (Config, error) {
	godotenv.Load()
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Addr:       envOr(getenv, "ADDR", ":8080"),
		DBPath:     envOr(getenv, "DB_PATH", "blog.db"),
		AdminUser:  envOr(getenv, "ADMIN_USER", "admin"),
		AdminPass:  getenv("ADMIN_PASS"),
		BcryptCost: bcrypt.DefaultCost,
		LogLevel:   envOr(getenv, "LOG_LEVEL", "info"),
	}

	if cfg.AdminPass == "" {
		cfg.AdminPass = defaultAdminPassword
		cfg.AdminPassDefaulted = true
	}

	cfg.SecureCookies = getenv("SECURE_COOKIES") == "true"

	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %q", bcrypt.MinCost, bcrypt.MaxCost, v)
		}
		cfg.BcryptCost = cost
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
