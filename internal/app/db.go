package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nations-cup/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	dbPingTimeout       = 5 * time.Second
	maxTracedQueryBytes = 512
)

// postgresTarget is DB_URL resolved for the postgres storage driver.
type postgresTarget struct {
	dsn  string
	name string
	safe string
}

func newPostgresTarget(cfg config.Config) (postgresTarget, error) {
	raw := strings.TrimSpace(cfg.DBURL)
	if raw == "" {
		return postgresTarget{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=%s", config.StoragePostgres)
	}

	dsn := raw
	if cfg.DBDisablePreparedBinary {
		dsn = withDefaultParam(raw, "disable_prepared_binary_result", "yes")
	}
	return postgresTarget{dsn: dsn, name: databaseName(raw), safe: redactDSN(raw)}, nil
}

func openDB(ctx context.Context, target postgresTarget) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", target.dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(target.name),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", target.safe, err)
	}
	return db, nil
}

// withDefaultParam sets key on a URL style DSN unless it is already present.
// Keyword DSNs are returned untouched.
func withDefaultParam(raw, key, value string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Has(key) {
		return raw
	}
	query.Set(key, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// databaseName reads the database from either postgres://.../name or a
// keyword DSN with dbname=name.
func databaseName(raw string) string {
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}
	for _, token := range strings.Fields(raw) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// redactDSN masks the password so the DSN can go into logs and errors.
func redactDSN(raw string) string {
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return parsed.Redacted()
	}
	tokens := strings.Fields(raw)
	for i, token := range tokens {
		if strings.HasPrefix(token, "password=") {
			tokens[i] = "password=xxxxx"
		}
	}
	return strings.Join(tokens, " ")
}

// traceQuery collapses whitespace and caps the statement recorded on spans.
func traceQuery(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryBytes {
		return normalized
	}
	cut := maxTracedQueryBytes
	for cut > 0 && !utf8.RuneStart(normalized[cut]) {
		cut--
	}
	return normalized[:cut] + "..."
}
