package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the SQL engines the store runs
// on. Queries are written with '?' placeholders and rebound per dialect.
type Dialect struct {
	Name string

	// Numbered switches '?' placeholders to $1, $2, ...
	Numbered bool

	// Schema is executed statement by statement by Migrate.
	Schema []string
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			version    INTEGER NOT NULL,
			archived   BOOLEAN NOT NULL DEFAULT FALSE,
			viewport   TEXT NOT NULL,
			nodes      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS containers (
			id          TEXT PRIMARY KEY,
			document_id TEXT REFERENCES documents(id),
			title       TEXT NOT NULL DEFAULT '',
			version     INTEGER NOT NULL,
			seq         INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			container_id TEXT NOT NULL REFERENCES containers(id),
			position     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS items_by_container ON items (container_id, position)`,
	},
}

// Postgres is the dialect for pgx.
var Postgres = Dialect{
	Name:     "postgres",
	Numbered: true,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			version    BIGINT NOT NULL,
			archived   BOOLEAN NOT NULL DEFAULT FALSE,
			viewport   TEXT NOT NULL,
			nodes      TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS containers (
			id          TEXT PRIMARY KEY,
			document_id TEXT REFERENCES documents(id),
			title       TEXT NOT NULL DEFAULT '',
			version     BIGINT NOT NULL,
			seq         INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			container_id TEXT NOT NULL REFERENCES containers(id),
			position     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS items_by_container ON items (container_id, position)`,
	},
}

// Rebind rewrites '?' placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
