// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for noticeboard.
//
// Values come from environment variables (NOTICEBOARD_*), configuration
// files, or command-line flags and are loaded in LoadConfig. Framework-level
// settings such as ports, TLS, and log level live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name (default: noticeboard-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens
	JWTSecret string
	JWTTTL    time.Duration

	// Admin bootstrap. Both blank disables it.
	AdminUsername string
	AdminPassword string

	// Login throttling
	LoginIPLimit   int // attempts per IP per minute
	LoginUserLimit int // attempts per username per five minutes

	// Database operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}
