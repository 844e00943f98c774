package storage

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/config"
)

// dialect holds the few SQL fragments that differ between backends.
// Queries are written with ? placeholders and rebound when needed.
type dialect struct {
	name string
	// nowText evaluates to the database clock as "YYYY-MM-DD HH:MM:SS.fff".
	nowText string
	// touch is the new value for updated_at on every mutation.
	touch string
	// dayFormat wraps a timestamp column and yields "YYYY-MM-DD".
	dayFormat  string
	positional bool
}

var (
	sqliteDialect = dialect{
		name:      config.DriverSQLite,
		nowText:   `strftime('%Y-%m-%d %H:%M:%f', 'now')`,
		touch:     `max(updated_at, strftime('%Y-%m-%d %H:%M:%f', 'now'))`,
		dayFormat: `date(%s)`,
	}
	postgresDialect = dialect{
		name:       config.DriverPostgres,
		nowText:    `to_char(LOCALTIMESTAMP, 'YYYY-MM-DD HH24:MI:SS.MS')`,
		touch:      `GREATEST(updated_at, LOCALTIMESTAMP)`,
		dayFormat:  `to_char(%s, 'YYYY-MM-DD')`,
		positional: true,
	}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return sqliteDialect, nil
	case config.DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// day returns the calendar-date expression for column.
func (d dialect) day(column string) string {
	return fmt.Sprintf(d.dayFormat, column)
}

// rebind rewrites ? placeholders to $1, $2, ... for postgres.
func (d dialect) rebind(query string) string {
	if !d.positional {
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
