package storage

import (
	"database/sql"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver histview databases must be opened
// with: go-sqlite3 with the local_day function registered on every
// connection.
const DriverName = "sqlite3_histview"

// zones resolves the zone names passed to local_day.
var zones sync.Map

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("local_day", localDay, true)
		},
	})
}

// registerZone makes loc resolvable by local_day and returns its name.
func registerZone(loc *time.Location) string {
	name := loc.String()
	zones.Store(name, loc)
	return name
}

// localDay returns the calendar day (YYYY-MM-DD) of the unix millisecond ms
// in the named zone. Each instant uses the offset in force at that instant.
// Unknown zones fall back to UTC.
func localDay(ms int64, zone string) string {
	loc := time.UTC
	if v, ok := zones.Load(zone); ok {
		loc = v.(*time.Location)
	} else if l, err := time.LoadLocation(zone); err == nil {
		loc = l
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02")
}
