// database/connection.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/geoharvest/stacsync/config"
	_ "github.com/go-sql-driver/mysql"
)

var DB *sql.DB

// InitDB initializes the dataset catalog connection pool.
func InitDB(cfg config.DatabaseConfig) error {
	var err error
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)

	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database: connected to the dataset catalog.")
	return nil
}

// CloseDB closes the connection pool. Called on shutdown.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("Database: connection closed.")
	}
}
