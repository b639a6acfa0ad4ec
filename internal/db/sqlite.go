package db

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDriver is go-sqlite3 with lower() replaced by a Unicode-aware
// version, so LOWER(name) folds the same way strings.ToLower does.
// sqlite's built-in lower() only folds ASCII.
const SQLiteDriver = "sqlite3_unicode"

func init() {
	sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		// go-sqlite3 passes NULL as a nil slice
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	}
	return v
}
