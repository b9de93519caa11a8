package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gigsos_backend/internal/models"
)

// Connect открывает пул postgres. Ошибки уникальности и внешних ключей
// транслируются в gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// Models - все таблицы в порядке зависимостей
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserSession{},
		&models.Address{},
		&models.Job{},
		&models.JobApplication{},
		&models.JobReview{},
		&models.SOSRequest{},
		&models.SOSHelper{},
		&models.PointsEntry{},
		&models.Notification{},
		&models.UserBan{},
		&models.AdminAction{},
		&models.BanComplaint{},
	}
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
