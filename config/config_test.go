package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	c := map[string]string{
		"PORT":             "8080",
		"BAD_INT":          "eight",
		"SEED":             "true",
		"SHUTDOWN_TIMEOUT": "15s",
		"ORIGINS":          "http://localhost:3000, https://coproject.dk,,",
		"EMPTY":            "",
	}

	assert.Equal(t, "8080", GetString(c, "PORT", "80"))
	assert.Equal(t, "80", GetString(nil, "PORT", "80"))

	assert.Equal(t, 8080, GetInt(c, "PORT", 80))
	assert.Equal(t, 80, GetInt(c, "BAD_INT", 80))
	assert.Equal(t, 80, GetInt(c, "MISSING", 80))

	assert.True(t, GetBool(c, "SEED", false))
	assert.True(t, GetBool(c, "MISSING", true))
	assert.False(t, GetBool(c, "PORT", false))

	assert.Equal(t, 15*time.Second, GetDuration(c, "SHUTDOWN_TIMEOUT", time.Second))
	assert.Equal(t, time.Second, GetDuration(c, "PORT", time.Second))

	assert.Equal(t, []string{"http://localhost:3000", "https://coproject.dk"}, GetList(c, "ORIGINS", nil))
	assert.Equal(t, []string{"*"}, GetList(c, "EMPTY", []string{"*"}))
}

func TestSplit(t *testing.T) {
	key, value := split("DATABASE_URL=postgres://u:p@host/db?sslmode=disable")
	assert.Equal(t, "DATABASE_URL", key)
	assert.Equal(t, "postgres://u:p@host/db?sslmode=disable", value)

	key, value = split("FLAG")
	assert.Equal(t, "FLAG", key)
	assert.Empty(t, value)
}
