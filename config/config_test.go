package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exograph/exograph/config"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv(config.EnvCorsDomains, "")
	t.Setenv(config.EnvIntrospection, "")
	t.Setenv(config.EnvNormalDepthLimit, "")

	c := config.FromEnv()
	assert.False(t, c.IntrospectionOn)
	assert.Equal(t, config.DefaultNormalDepthLimit, c.NormalDepthLimit)
	assert.Equal(t, config.DefaultIntrospectionDepthLimit, c.IntrospectionDepth)
}

func TestAllowsOrigin(t *testing.T) {
	c := config.Config{CorsDomains: []string{"https://a.example.com", "https://b.example.com"}}
	assert.True(t, c.AllowsOrigin("https://a.example.com"))
	assert.False(t, c.AllowsOrigin("https://evil.example.com"))

	wild := config.Config{CorsDomains: []string{"*"}}
	assert.True(t, wild.AllowsOrigin("https://anything.example.com"))
}

func TestBoolAndIntEnvParsing(t *testing.T) {
	t.Setenv(config.EnvIntrospection, "on")
	t.Setenv(config.EnvNormalDepthLimit, "7")
	c := config.FromEnv()
	assert.True(t, c.IntrospectionOn)
	assert.Equal(t, 7, c.NormalDepthLimit)
}

func TestMalformedIntFallsBackToDefault(t *testing.T) {
	t.Setenv(config.EnvNormalDepthLimit, "not-a-number")
	c := config.FromEnv()
	assert.Equal(t, config.DefaultNormalDepthLimit, c.NormalDepthLimit)
}
