package database

import (
	"fmt"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Migrate crea o actualiza el esquema a partir de los modelos.
// Reutiliza el pool de database/sql; las consultas de los repositorios siguen siendo SQL plano.
func Migrate(db *DB, logger *logrus.Logger) error {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("error opening gorm session: %w", err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.Product{}, &models.Sale{}, &models.SaleLine{}); err != nil {
		return fmt.Errorf("error migrating schema: %w", err)
	}

	logger.Info("Database schema migrated")
	return nil
}
