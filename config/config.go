// Package config reads the environment variables recognized by the server
// (spec.md §6). It deliberately does not touch flags, config files, or the
// CLI: source-DSL/CLI dispatch is out of scope (spec.md §1), so the runtime
// only ever needs what the process environment already provides at boot.
package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvCorsDomains       = "EXO_CORS_DOMAINS"
	EnvIntrospection     = "EXO_INTROSPECTION"
	EnvJWTSecret         = "EXO_JWT_SECRET"
	EnvOIDCURL           = "EXO_OIDC_URL"
	EnvEnableRestAPI     = "EXO_UNSTABLE_ENABLE_REST_API"
	EnvNormalDepthLimit  = "EXO_QUERY_DEPTH_LIMIT"
	EnvIntrospectionDepth = "EXO_INTROSPECTION_DEPTH_LIMIT"

	EnvDatabaseURL  = "EXO_POSTGRES_URL"
	EnvDatabaseUser = "EXO_POSTGRES_USER"
	EnvDatabasePass = "EXO_POSTGRES_PASSWORD"
)

// Defaults mirror the conservative defaults baked into the original
// implementation's loader (original_source/crates/cli/src/config/loader.rs):
// introspection off and reasonably tight depth limits unless overridden.
const (
	DefaultNormalDepthLimit       = 10
	DefaultIntrospectionDepthLimit = 15
)

// Config is the fully-resolved, boot-time configuration. It is read once by
// main (a documented collaborator outside this module's scope) and passed
// down by value/pointer; nothing here is re-read per request.
type Config struct {
	CorsDomains        []string
	IntrospectionOn    bool
	JWTSecret          string
	OIDCURL            string
	RestAPIEnabled     bool
	NormalDepthLimit   int
	IntrospectionDepth int

	DatabaseURL  string
	DatabaseUser string
	DatabasePass string
}

// FromEnv builds a Config from os.Environ(), applying defaults for anything
// unset or malformed.
func FromEnv() Config {
	return Config{
		CorsDomains:        splitCSV(os.Getenv(EnvCorsDomains)),
		IntrospectionOn:    boolEnv(EnvIntrospection, false),
		JWTSecret:          os.Getenv(EnvJWTSecret),
		OIDCURL:            os.Getenv(EnvOIDCURL),
		RestAPIEnabled:     boolEnv(EnvEnableRestAPI, false),
		NormalDepthLimit:   intEnv(EnvNormalDepthLimit, DefaultNormalDepthLimit),
		IntrospectionDepth: intEnv(EnvIntrospectionDepth, DefaultIntrospectionDepthLimit),
		DatabaseURL:        os.Getenv(EnvDatabaseURL),
		DatabaseUser:       os.Getenv(EnvDatabaseUser),
		DatabasePass:       os.Getenv(EnvDatabasePass),
	}
}

// AllowsOrigin implements the `*` wildcard or exact match described for
// EXO_CORS_DOMAINS in spec.md §6.
func (c Config) AllowsOrigin(origin string) bool {
	for _, d := range c.CorsDomains {
		if d == "*" || strings.EqualFold(d, origin) {
			return true
		}
	}
	return false
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolEnv(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	case "false", "off", "0", "no":
		return false
	default:
		return def
	}
}

func intEnv(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}
