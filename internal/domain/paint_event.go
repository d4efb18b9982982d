package domain

import "time"

// PaintEvent 是一次已提交绘制的审计记录 (只追加)。
// 由后台 worker 异步写入，绘制热路径不读取此表。
type PaintEvent struct {
	ID        uint      `gorm:"primaryKey"`                       // 审计记录 ID (主键)
	X         int       `gorm:"not null"`                         // 格子 X 坐标
	Y         int       `gorm:"not null"`                         // 格子 Y 坐标
	Color     string    `gorm:"type:varchar(7);not null"`         // 提交的颜色
	UserID    string    `gorm:"type:varchar(191);index;not null"` // 提交者的用户 ID
	PaintedAt time.Time `gorm:"index;not null"`                   // 提交时间戳
	CreatedAt time.Time `gorm:"autoCreateTime"`                   // 记录创建时间 (GORM 自动填充)
}
