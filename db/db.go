package db

import (
	"fmt"

	"github.com/Riciboyz/threads-backend/db/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured store and migrates the schema. Exactly one
// engine backs a deployment; the driver name is a deployment choice.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Follow{},
		&model.Group{},
		&model.Membership{},
		&model.Thread{},
		&model.Like{},
		&model.Comment{},
		&model.Topic{},
		&model.Notification{},
	); err != nil {
		return nil, err
	}
	return gdb, nil
}
