package db

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/lib/pq"
	"github.com/sysdevguru/corpactions/log"
	"github.com/sysdevguru/corpactions/utils/env"
)

var (
	db   *gorm.DB
	once sync.Once
)

const (
	ForShare  = "FOR SHARE"
	ForUpdate = "FOR UPDATE"
)

// DB is a singleton wrapper to the gorm database object.
func DB() *gorm.DB {
	var err error

	once.Do(func() {
		db, err = NewDB()
		if err != nil {
			log.Panic("database initialization failure", "error", err)
		}
	})

	return db
}

// NewDB opens a postgres connection configured from the PG* environment
// variables.
func NewDB() (dbT *gorm.DB, err error) {
	sslmode := env.GetVar("PGSSLMODE")
	host := env.GetVar("PGHOST")
	user := env.GetVar("PGUSER")
	dbname := env.GetVar("PGDATABASE")
	password := env.GetVar("PGPASSWORD")
	logDBString := env.GetVar("LOG_DB")
	maxOpenConns := env.GetVar("DB_MAX_OPEN_CONNS")
	maxIdleConns := env.GetVar("DB_MAX_IDLE_CONNS")

	if sslmode == "" {
		sslmode = "disable"
	}

	params := fmt.Sprintf(
		"host=%v user=%v dbname=%v sslmode=%v password=%v",
		host, user, dbname, sslmode, password,
	)

	dbT, err = gorm.Open("postgres", params)
	if err != nil {
		return nil, err
	}

	// default = 20 (Go's default is 0 == unlimited)
	dbT.DB().SetMaxOpenConns(20)
	if maxOpenConns != "" {
		nMaxOpenConns, err := strconv.Atoi(maxOpenConns)
		if err != nil {
			log.Warn("parse error DB_MAX_OPEN_CONNS", "error", err)
		} else {
			dbT.DB().SetMaxOpenConns(nMaxOpenConns)
		}
	}

	if maxIdleConns != "" {
		nMaxIdleConns, err := strconv.Atoi(maxIdleConns)
		if err != nil {
			log.Warn("parse error DB_MAX_IDLE_CONNS", "error", err)
		} else {
			dbT.DB().SetMaxIdleConns(nMaxIdleConns)
		}
	}

	// so it doesn't reuse stale connections
	dbT.DB().SetConnMaxLifetime(30 * time.Minute)

	logDB, _ := strconv.ParseBool(logDBString)
	dbT.LogMode(logDB)

	return dbT, nil
}

// IsConnectionError returns true if the supplied error is a connection
// related error based on PostgreSQL connection exceptions class.
func IsConnectionError(err error) bool {
	return pqErrorCode(err) == "08"
}

func pqErrorCode(err error) pq.ErrorCode {
	if err != nil {
		pqErr, ok := err.(*pq.Error)

		if ok {
			return pqErr.Code[0:2]
		}
	}
	return ""
}

// Serializable begins a transaction with isolation level
// set to SERIALIZABLE.
func Serializable() *gorm.DB {
	return DB().Begin().Exec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
}

// RepeatableRead begins a transaction with isolation level
// set to REPEATABLE READ.
func RepeatableRead() *gorm.DB {
	return DB().Begin().Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ")
}

// Begin a transaction.
func Begin() *gorm.DB {
	return DB().Begin()
}
