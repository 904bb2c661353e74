package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/warpgrapher/gql2graph/internal/errors"
)

// CypherEndpointConfig holds the WG_CYPHER_* environment surface consumed at
// pool construction (spec.md §6).
type CypherEndpointConfig struct {
	Host         string
	ReadReplicas string
	Port         int
	User         string
	Pass         string
	PoolSize     int
}

// GremlinEndpointConfig holds the WG_GREMLIN_* environment surface (spec.md §6).
type GremlinEndpointConfig struct {
	Host            string
	ReadReplica     string
	Port            int
	User            string
	Pass            string
	UseTLS          bool
	ValidateCerts   bool
	Bindings        bool
	LongIDs         bool
	Partitions      bool
	Sessions        bool
	Version         int
	PoolSize        int
}

// defaultPoolSize implements "default = core count, capped at 8 if
// unavailable" (spec.md §6): NumCPU is always available on Go, so the cap
// only bites when WG_POOL_SIZE is unset and NumCPU() > 8.
func defaultPoolSize() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

func poolSizeFromEnv() int {
	if raw := os.Getenv("WG_POOL_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultPoolSize()
}

// LoadCypherEndpointConfig reads WG_CYPHER_* from the process environment.
// WG_CYPHER_HOST and WG_CYPHER_PORT are required; their absence is a
// ConfigError, matching the ambient error taxonomy's "missing env var" kind
// (spec.md §7).
func LoadCypherEndpointConfig() (CypherEndpointConfig, error) {
	host := GetString("WG_CYPHER_HOST", "")
	if host == "" {
		return CypherEndpointConfig{}, errors.ConfigErrorf("missing required environment variable WG_CYPHER_HOST")
	}
	portRaw := GetString("WG_CYPHER_PORT", "")
	if portRaw == "" {
		return CypherEndpointConfig{}, errors.ConfigErrorf("missing required environment variable WG_CYPHER_PORT")
	}
	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return CypherEndpointConfig{}, errors.ConfigErrorf("WG_CYPHER_PORT must be an integer: %v", err)
	}

	return CypherEndpointConfig{
		Host:         host,
		ReadReplicas: GetString("WG_CYPHER_READ_REPLICAS", ""),
		Port:         port,
		User:         GetString("WG_CYPHER_USER", ""),
		Pass:         GetString("WG_CYPHER_PASS", ""),
		PoolSize:     poolSizeFromEnv(),
	}, nil
}

// LoadGremlinEndpointConfig reads WG_GREMLIN_* from the process environment.
// WG_GREMLIN_HOST and WG_GREMLIN_PORT are required.
func LoadGremlinEndpointConfig() (GremlinEndpointConfig, error) {
	host := GetString("WG_GREMLIN_HOST", "")
	if host == "" {
		return GremlinEndpointConfig{}, errors.ConfigErrorf("missing required environment variable WG_GREMLIN_HOST")
	}
	portRaw := GetString("WG_GREMLIN_PORT", "")
	if portRaw == "" {
		return GremlinEndpointConfig{}, errors.ConfigErrorf("missing required environment variable WG_GREMLIN_PORT")
	}
	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return GremlinEndpointConfig{}, errors.ConfigErrorf("WG_GREMLIN_PORT must be an integer: %v", err)
	}
	version := GetInt("WG_GREMLIN_VERSION", 3)
	if version != 1 && version != 2 && version != 3 {
		return GremlinEndpointConfig{}, errors.ConfigErrorf("WG_GREMLIN_VERSION must be 1, 2, or 3, got %d", version)
	}

	return GremlinEndpointConfig{
		Host:          host,
		ReadReplica:   GetString("WG_GREMLIN_READ_REPLICA", ""),
		Port:          port,
		User:          GetString("WG_GREMLIN_USER", ""),
		Pass:          GetString("WG_GREMLIN_PASS", ""),
		UseTLS:        GetBool("WG_GREMLIN_USE_TLS", true),
		ValidateCerts: GetBool("WG_GREMLIN_VALIDATE_CERTS", true),
		Bindings:      GetBool("WG_GREMLIN_BINDINGS", true),
		LongIDs:       GetBool("WG_GREMLIN_LONG_IDS", false),
		Partitions:    GetBool("WG_GREMLIN_PARTITIONS", false),
		Sessions:      GetBool("WG_GREMLIN_SESSIONS", false),
		Version:       version,
		PoolSize:      poolSizeFromEnv(),
	}, nil
}
