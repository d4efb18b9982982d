package domain

import "time"

// Pixel 表示画布上一个已绘制的格子。
// (X, Y) 是复合主键：每个坐标至多一行，后写者胜 (通过 upsert 实现)。
// 未绘制的格子没有对应行，渲染为背景色。
type Pixel struct {
	X         int       `gorm:"primaryKey;autoIncrement:false"` // 格子 X 坐标，0 ≤ x < W
	Y         int       `gorm:"primaryKey;autoIncrement:false"` // 格子 Y 坐标，0 ≤ y < H
	Color     string    `gorm:"type:varchar(7);not null"`       // 颜色，"#RGB" 或 "#RRGGBB"
	UserID    string    `gorm:"type:varchar(191);index;not null"` // 最后写入者的用户 ID
	PaintedAt time.Time `gorm:"index;not null"`                 // 最后一次提交的时间戳
}
