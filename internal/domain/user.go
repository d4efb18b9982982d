// Package domain 定义了应用程序中使用的数据结构 (数据库模型)。
package domain

import "time"

// 用户的认证类型。Guest 用户在首次连接时由会话标识惰性创建。
const (
	AuthTypeLocal  = "local"
	AuthTypeGitHub = "github"
	AuthTypeGoogle = "google"
	AuthTypeGuest  = "guest"
)

// User 表示画布上的一个用户。
// ID 是稳定的不透明字符串：OAuth 用户使用提供方的 profile ID，
// 本地注册用户使用 UUID，访客使用会话派生的标识。
type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(191)"`                             // 用户唯一标识符 (主键)
	Username      string    `gorm:"type:varchar(191);uniqueIndex:idx_username_auth;not null"` // 显示名，(username, auth_type) 唯一
	Email         *string   `gorm:"type:varchar(191);uniqueIndex:idx_email_auth"`             // 邮箱，(email, auth_type) 唯一；访客为 NULL，多个 NULL 不冲突
	Password      string    `gorm:"type:text"`                                                // 哈希后的密码，仅 local 用户使用
	AuthType      string    `gorm:"type:varchar(20);uniqueIndex:idx_username_auth;uniqueIndex:idx_email_auth;not null"` // 认证类型: local/github/google/guest
	ProfileURL    string    `gorm:"type:text"`                                                // 头像或主页 URL (可选)
	IsAdmin       bool      `gorm:"not null;default:false"`                                   // 管理员标志，创建/刷新时由 ADMIN_USER_ID 决定
	PixelsPainted uint      `gorm:"not null;default:0"`                                       // 已绘制像素数，只通过绘制流水线原子递增
	CreatedAt     time.Time `gorm:"autoCreateTime"`                                           // 记录创建时间 (GORM 自动填充)
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`                                           // 记录最后更新时间 (GORM 自动填充)
}

// Identity 是连接建立时绑定到该连接的用户身份快照。
// UserID 在连接的整个生命周期内不可变；其余展示字段可在
// reconnectUser 时从最新的 User 行刷新。
type Identity struct {
	UserID     string
	Username   string
	AuthType   string
	ProfileURL string
	IsAdmin    bool
}

// IdentityOf 从 User 行构造连接身份快照。
func IdentityOf(u *User) Identity {
	return Identity{
		UserID:     u.ID,
		Username:   u.Username,
		AuthType:   u.AuthType,
		ProfileURL: u.ProfileURL,
		IsAdmin:    u.IsAdmin,
	}
}
