package config

import (
	"os"
	"strconv"
)

// withEnv applies environment overrides on top of the loaded values.
func (c *Config) withEnv() *Config {
	if v := os.Getenv("ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := getEnvInt("BUILD_CAP"); v > 0 {
		c.BuildCap = v
	}
	if v := os.Getenv("SWEEP_ALWAYS_UNLOCKED"); v != "" {
		c.SweepAlwaysUnlocked = v == "1" || v == "true"
	}
	return c
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
