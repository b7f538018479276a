package database

import (
	"fmt"
	"log"
	"music_academy_backend/internal/config"
	"music_academy_backend/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	// TranslateError 让唯一索引冲突以 gorm.ErrDuplicatedKey 暴露，
	// 选课和发徽章的并发兜底逻辑依赖这个判定
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 连接池：上限 20，空闲 30s 回收
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(30 * time.Second)

	log.Println("Database connection established")

	return db, nil
}

// Migrate 创建/更新表结构。唯一索引 idx_user_course 与
// idx_badge_user_course 必须存在，选课与发徽章的并发安全依赖它们。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Module{},
		&model.Course{},
		&model.Enrollment{},
		&model.Badge{},
	)
}
