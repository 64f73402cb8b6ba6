package database

import (
	"fmt"

	"catalog-sync-service/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresSettings holds the connection parameters for the product store.
type PostgresSettings struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (s PostgresSettings) DSN() string {
	host := s.Host
	if host == "" {
		host = "localhost"
	}
	port := s.Port
	if port == "" {
		port = "5432"
	}
	sslMode := s.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		host, s.User, s.Password, s.DBName, port, sslMode)
}

// Connect opens the Postgres product store and migrates the sync tables.
func Connect(s PostgresSettings) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(s.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to PostgreSQL", zap.String("host", s.Host), zap.String("db", s.DBName))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.Attribute{}, &models.Attachment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
