package app

import (
	"net/url"
	"strings"
)

// dbNameFromURL pulls the database name out of DB_URL for the startup log.
// It understands the two shapes lib/pq accepts: a postgres:// URL, where the
// name is the path, and a key=value DSN, where it is the dbname key.
func dbNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	for _, kv := range strings.Fields(raw) {
		if name, ok := strings.CutPrefix(kv, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}
