// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for PrimeBug.
//
// WAFFLE's CoreConfig covers framework-level settings (ports, TLS, logging,
// CORS); AppConfig is everything specific to this application. The struct is
// passed to most lifecycle hooks, so configuration needed during startup,
// request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // secret key for signing session cookies
	SessionName   string        // cookie name
	SessionDomain string        // cookie domain (blank means current host)
	SessionTTL    time.Duration // how long a signed-in session lasts

	// Object storage (S3-compatible) for uploaded documents
	BlobEndpoint  string
	BlobAccessKey string
	BlobSecretKey string
	BlobBucket    string
	BlobUseSSL    bool

	// Email/SMTP configuration for password reset mail
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks and email links
	BaseURL string

	// Login rate limiting
	LoginRateLimit  int
	LoginRateWindow time.Duration
}
