package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits the admin email list
	"time"    // time expresses the book return period
)

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable. The types reflect how the
// values are used in the application: strings for identifiers and
// secrets, ints for costs and TTLs, a duration for the return period.
type Config struct {
	Env          string          // application environment (e.g. "dev", "prod")
	Port         string          // HTTP port to listen on
	DBUser       string          // database username
	DBPass       string          // database password (optional)
	DBHost       string          // database host address
	DBPort       string          // database port number
	DBName       string          // database name
	JWTSecret    string          // secret used to sign JWTs
	AccessTTLMin int             // access token time-to-live in minutes
	BcryptCost   int             // bcrypt cost for password hashing
	ReturnPeriod time.Duration   // how long a borrower may keep a copy
	AdminEmails  map[string]bool // emails auto-promoted to admin on registration
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// BOOK_RETURN_PERIOD_DAYS defaults to 14 days and ADMIN_EMAILS may be
// empty.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   mustInt("BCRYPT_COST"),
		ReturnPeriod: time.Duration(intOr("BOOK_RETURN_PERIOD_DAYS", 14)) * 24 * time.Hour,
		AdminEmails:  parseEmails(os.Getenv("ADMIN_EMAILS")),
	}
}

// parseEmails splits a comma-separated list into a lookup set with
// trimmed, lower-cased keys.
func parseEmails(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer. If conversion fails, the application logs a fatal error
// and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr reads an optional integer variable, falling back to def when
// unset or malformed values abort startup like mustInt does.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
