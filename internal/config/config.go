package config // package config loads application configuration from environment variables

import (
    "crypto/rand"  // rand generates a throwaway CSRF key outside production
    "encoding/hex" // hex decodes the CSRF key
    "log"          // log is used to report configuration errors and halt execution
    "os"           // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional integrations (Redis, RabbitMQ, Resend)
// are configured elsewhere and switch themselves off when unreachable.
type Config struct {
    Env            string // application environment (e.g. "dev", "production")
    Port           string // HTTP port to listen on
    StoreDriver    string // document store engine: "sqlite" or "mysql"
    StoreDSN       string // file path, ":memory:" or MySQL DSN
    JWTSecret      string // secret used to sign session tokens
    SessionTTLMin  int    // session lifetime in minutes; 0 disables expiry
    BcryptCost     int    // bcrypt cost for password hashing
    SecureCookies  bool   // set the Secure flag on cookies
    EnforceRoles   bool   // guard organiser routes with the role gate
    RegisterRole   string // role granted by public registration
    AdminUsername  string // bootstrap organiser username (optional)
    AdminPassword  string // bootstrap organiser password (optional)
    SeedFile       string // YAML course seed applied to an empty store
    StaticDir      string // static asset directory
    CSRFEnabled    bool   // protect forms with CSRF tokens
    CSRFKey        []byte // 32-byte CSRF authentication key
    RabbitURL      string // AMQP URL; empty disables booking events
    BookingLogDir  string // directory the booking consumer appends to
    ResendAPIKey   string // Resend API key; empty logs emails instead
    MailFrom       string // sender address for confirmation emails
}

// Load reads configuration values from environment variables and returns a
// Config.  Only the signing secret is required; everything else has a
// default suitable for local development.
func Load() Config {
    cfg := Config{
        Env:           getenv("APP_ENV", "dev"),
        Port:          getenv("APP_PORT", "3000"),
        StoreDriver:   getenv("STORE_DRIVER", "sqlite"),
        StoreDSN:      getenv("STORE_DSN", "groovemind.db"),
        JWTSecret:     secret(),
        SessionTTLMin: envInt("SESSION_TTL_MIN", 120),
        BcryptCost:    envInt("BCRYPT_COST", 10),
        SecureCookies: envBool("COOKIE_SECURE", false),
        EnforceRoles:  envBool("AUTH_ENFORCE_ROLES", true),
        RegisterRole:  getenv("REGISTER_ROLE", "organiser"),
        AdminUsername: os.Getenv("ADMIN_USERNAME"),
        AdminPassword: os.Getenv("ADMIN_PASSWORD"),
        SeedFile:      os.Getenv("SEED_FILE"),
        StaticDir:     getenv("STATIC_DIR", "public"),
        CSRFEnabled:   envBool("CSRF_ENABLED", true),
        RabbitURL:     rabbitURL(),
        BookingLogDir: getenv("BOOKING_LOG_DIR", "logs"),
        ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
        MailFrom:      getenv("MAIL_FROM", "GrooveMind <bookings@groovemind.example>"),
    }
    if cfg.CSRFEnabled {
        cfg.CSRFKey = csrfKey(cfg)
    }
    return cfg
}

// IsProduction reports whether the application runs in production mode.
func (c Config) IsProduction() bool { return c.Env == "production" }

// secret returns JWT_SECRET, falling back to ACCESS_TOKEN_SECRET.  One of
// them must be set; the application refuses to start without a key.
func secret() string {
    if v := os.Getenv("JWT_SECRET"); v != "" {
        return v
    }
    return must("ACCESS_TOKEN_SECRET")
}

func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

// csrfKey reads CSRF_KEY (64 hex characters).  Production requires it; in
// other environments a random key is generated per start.
func csrfKey(cfg Config) []byte {
    if raw := os.Getenv("CSRF_KEY"); raw != "" {
        key, err := hex.DecodeString(raw)
        if err != nil || len(key) != 32 {
            log.Fatal("CSRF_KEY must be 64 hex characters (32 bytes)")
        }
        return key
    }
    if cfg.IsProduction() {
        log.Fatal("CSRF_KEY is required in production")
    }
    key := make([]byte, 32)
    if _, err := rand.Read(key); err != nil {
        log.Fatalf("generate CSRF key: %v", err)
    }
    log.Println("WARNING: using a random CSRF key; forms will not survive a restart")
    return key
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s (or JWT_SECRET)", key)
    }
    return v
}
