package mysql

import (
	"fmt"
	"time"

	"ledger-service/src/pkg/log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
)

// DBInterface hides the concrete sqlx handle so repositories can be wired
// against a not-yet-connected database during bootstrap.
type DBInterface interface {
	GetDB() (*sqlx.DB, error)
}

type Connection struct {
	db *sqlx.DB
}

func (c *Connection) GetDB() (*sqlx.DB, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("mysql connection is not initialized")
	}
	return c.db, nil
}

// InitConnection opens the MySQL pool from viper config.
func InitConnection(v *viper.Viper, logger log.Log) (DBInterface, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&multiStatements=false",
		v.GetString("mysql.username"),
		v.GetString("mysql.password"),
		v.GetString("mysql.host"),
		v.GetInt("mysql.port"),
		v.GetString("mysql.database"),
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		logger.Error("mysql", fmt.Sprintf("failed to connect: %v", err), "InitConnection", "")
		return nil, err
	}

	maxOpen := v.GetInt("mysql.pool.max_open")
	if maxOpen == 0 {
		maxOpen = 20
	}
	maxIdle := v.GetInt("mysql.pool.max_idle")
	if maxIdle == 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("mysql", "connected", "InitConnection", v.GetString("mysql.host"))
	return &Connection{db: db}, nil
}
