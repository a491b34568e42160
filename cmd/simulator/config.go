// FILE: config.go
// Package main (simulator) – Environment configuration.
//
// Same shape as the teacher's env.go/config.go: getEnv* helpers reading
// the process environment with defaults, populated from a .env file
// first. Unlike the teacher, which hand-rolls its own loader to dodge
// shell-export friction with a multi-line PEM secret, this program has
// no such secret to protect, so it loads .env with the pack's actual
// godotenv (see bbak-mcs-mcp's internal/config/config.go) instead of
// reimplementing a parser.
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SimulatorConfig holds every knob the simulator binary itself needs,
// distinct from engine.Config (the allocation math's knobs), which is
// loaded from the scenario file instead (see scenario.go).
type SimulatorConfig struct {
	Shop           string
	TestID         string
	Port           int
	ScenarioPath   string
	SnapshotBuffer int
	PrettyLog      bool
}

// loadSimulatorEnv loads .env (if present, from "." then "..") and
// returns a SimulatorConfig built from the process environment,
// falling back to defaults for anything unset. Missing .env files are
// not an error: the errors godotenv.Load returns are discarded.
func loadSimulatorEnv() SimulatorConfig {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	return SimulatorConfig{
		Shop:           getEnv("AB_SHOP", "demo-shop.myshopify.com"),
		TestID:         getEnv("AB_TEST_ID", "sim-test-1"),
		Port:           getEnvInt("AB_PORT", 9090),
		ScenarioPath:   getEnv("AB_SCENARIO", ""),
		SnapshotBuffer: getEnvInt("AB_SNAPSHOT_BUFFER", 256),
		PrettyLog:      getEnvBool("AB_PRETTY_LOG", true),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}
