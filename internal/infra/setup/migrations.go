package setup

import (
	"fmt"

	"gorm.io/gorm"

	"pixel-canvas/internal/domain"
)

// MigrateDB 自动迁移数据库模式。
// users 的 (username, auth_type)/(email, auth_type) 复合唯一索引、
// pixels 的 (x, y) 复合主键和 user_cooldowns 的单行主键
// 都由模型上的 GORM tag 声明，这里统一交给 AutoMigrate。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Pixel{},
		&domain.Cooldown{},
		&domain.PaintEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	return nil
}
