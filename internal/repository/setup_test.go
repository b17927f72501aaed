package repository

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-board-api/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// :memory: databases are per-connection
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&domain.Project{},
		&domain.ColumnDefinition{},
		&domain.TaskGroup{},
		&domain.Task{},
		&domain.TaskAssignee{},
		&domain.TaskColumnValue{},
		&domain.AutomationRule{},
		&domain.TaskComment{},
		&domain.TaskAttachment{},
		&domain.TaskActivity{},
		&domain.DueDateFiring{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}
