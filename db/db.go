package db

import (
	"fmt"
	"log"

	"github.com/KAsare1/Yatube-server/cmd/config"
	"github.com/KAsare1/Yatube-server/cmd/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.PasswordResetToken{},
	}
}

func NewStorage(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DBURL)
	case "sqlite":
		path := cfg.DBURL
		if path == "" {
			path = "yatube.db"
		}
		dialector = sqlite.Open(path + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite serialises writers; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		log.Printf("Migrating %T table...", model)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %T table: %w", model, err)
		}
	}
	return nil
}

// Drop removes the given tables, or every table when none are given.
func Drop(db *gorm.DB, tables ...interface{}) error {
	if len(tables) == 0 {
		all := Models()
		for i := len(all) - 1; i >= 0; i-- {
			tables = append(tables, all[i])
		}
	}
	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("error dropping %T: %w", table, err)
		}
		log.Printf("Table %T dropped", table)
	}
	return nil
}

// ModelByName maps the table names accepted by the clear-db command.
func ModelByName(name string) (interface{}, bool) {
	switch name {
	case "User":
		return &models.User{}, true
	case "Group":
		return &models.Group{}, true
	case "Post":
		return &models.Post{}, true
	case "Comment":
		return &models.Comment{}, true
	case "Follow":
		return &models.Follow{}, true
	case "PasswordResetToken":
		return &models.PasswordResetToken{}, true
	}
	return nil, false
}
