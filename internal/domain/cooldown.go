package domain

import "time"

// Cooldown 记录用户最近一次成功绘制的时间，用于节流。
// 每个用户至多一行；只在绘制提交成功后 upsert，不做其他用途。
type Cooldown struct {
	UserID        string    `gorm:"primaryKey;type:varchar(191)"` // 用户 ID (主键)
	LastPaintTime time.Time `gorm:"not null"`                     // 最近一次提交成功的时间
}
