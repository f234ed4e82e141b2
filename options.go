package tokengate

import "go.uber.org/zap"

// Option configures the Client.
type Option func(*clientConfig)

type poolSpec struct {
	name          string
	providerLimit int64
}

type clientConfig struct {
	addrs     []string
	username  string
	password  string
	db        int
	keyPrefix string
	pools     []poolSpec
	logger    *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithValkey configures the client to connect to a Valkey instance.
// Valkey speaks the same protocol, so this is an alias of WithRedis.
func WithValkey(addr, password string) Option {
	return WithRedis(addr, password)
}

// WithAuth sets the database username (ACL-enabled servers).
func WithAuth(username string) Option {
	return func(c *clientConfig) {
		c.username = username
	}
}

// WithDB selects a logical database index. Default: 0.
func WithDB(db int) Option {
	return func(c *clientConfig) {
		c.db = db
	}
}

// WithKeyPrefix sets the namespace prefix for all stored keys.
// Default: "tokengate:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithPool declares a tracked pool. providerLimit is the provider's raw
// per-day token ceiling; the enforced limit subtracts a safety buffer.
// At least one pool is required.
func WithPool(name string, providerLimit int64) Option {
	return func(c *clientConfig) {
		c.pools = append(c.pools, poolSpec{name: name, providerLimit: providerLimit})
	}
}

// WithLogger enables structured logging for gate operations.
// Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
