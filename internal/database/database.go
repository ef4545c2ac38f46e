package database

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
)

// seq gives store-assigned insertion order; it never leaves the database.
const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq    BIGSERIAL,
	id     TEXT PRIMARY KEY,
	gvalue DOUBLE PRECISION,
	gdate  TEXT,
	mvalue DOUBLE PRECISION,
	mdate  TEXT
)`

func Connect() (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", viper.GetString("DB_DSN"))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
