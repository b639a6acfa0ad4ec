package db

import (
	"context"
	"database/sql"
	"time"
)

// Connect opens a pool for the given driver ("postgres" or "sqlite3") and
// verifies it with a ping.
func Connect(driverName, dsn string) (*sql.DB, error) {
	if driverName == "sqlite3" {
		driverName = SQLiteDriver
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
