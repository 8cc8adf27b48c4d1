package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/oshxona/backend/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const (
	DuplicateEntry      = 1062
	ForeignKeyViolation = 1452
)

// IsDuplicateEntry reports a unique key violation.
func IsDuplicateEntry(err error) bool {
	return hasErrorNumber(err, DuplicateEntry)
}

// IsForeignKeyViolation reports a reference to a missing parent row, such as a like of an unknown product.
func IsForeignKeyViolation(err error) bool {
	return hasErrorNumber(err, ForeignKeyViolation)
}

func hasErrorNumber(err error, number uint16) bool {
	var mysqlError *mysql.MySQLError
	return errors.As(err, &mysqlError) && mysqlError.Number == number
}

func NewConfig(cfg config.Database) (*mysql.Config, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time load location failed: %w", err)
	}
	conf := mysql.NewConfig()
	conf.Net = cfg.Net
	conf.Addr = cfg.Server
	conf.User = cfg.User
	conf.Passwd = cfg.Password
	conf.DBName = cfg.DBName
	conf.Timeout = cfg.Timeout
	conf.Loc = location
	conf.ParseTime = true
	conf.MultiStatements = true

	return conf, nil
}

func New(cfg config.Database) (*sqlx.DB, error) {
	conf, err := NewConfig(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := sqlx.Connect("mysql", conf.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConnections)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConnections)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	return dbConn, nil
}
