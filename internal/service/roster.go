package service

import (
	"context"
	"fmt"
	"sort"

	"pixel-canvas/internal/repository"
)

// 名册段位，按贡献计数划分；管理员固定为 moderator。
const (
	RankModerator = "moderator"
	RankArtist    = "artist"
	RankPainter   = "painter"
	RankVisitor   = "visitor"
)

// 段位阈值 (累计绘制数)。
const (
	artistThreshold  = 30
	painterThreshold = 10
)

// RosterEntry 是 updateUserList 消息中的一条在线用户记录。
type RosterEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	ProfileURL    string `json:"profileUrl"`
	IsAdmin       bool   `json:"isAdmin"`
	PixelsPainted uint   `json:"pixelsPainted"`
	Rank          string `json:"rank"`
}

// RosterService 把在线连接集合投影成带段位的用户名册。
type RosterService struct {
	userRepo repository.UserRepository
}

// NewRosterService 创建 RosterService 实例。
func NewRosterService(userRepo repository.UserRepository) *RosterService {
	if userRepo == nil {
		panic("userRepo cannot be nil for RosterService")
	}
	return &RosterService{userRepo: userRepo}
}

// BuildRoster 为给定的去重用户 ID 集合构建名册。
// 计数从持久层实时读取，名册里永远是最新值。
// 排序：绘制数降序，再按名字升序，保证广播内容确定。
func (s *RosterService) BuildRoster(ctx context.Context, userIDs []string) ([]RosterEntry, error) {
	if len(userIDs) == 0 {
		return []RosterEntry{}, nil
	}

	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("roster: failed to load users: %w", err)
	}

	entries := make([]RosterEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, RosterEntry{
			ID:            u.ID,
			Name:          u.Username,
			Type:          u.AuthType,
			ProfileURL:    u.ProfileURL,
			IsAdmin:       u.IsAdmin,
			PixelsPainted: u.PixelsPainted,
			Rank:          rankOf(u.IsAdmin, u.PixelsPainted),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PixelsPainted != entries[j].PixelsPainted {
			return entries[i].PixelsPainted > entries[j].PixelsPainted
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// rankOf 计算段位：管理员优先，其余按计数阈值。
func rankOf(isAdmin bool, pixelsPainted uint) string {
	switch {
	case isAdmin:
		return RankModerator
	case pixelsPainted >= artistThreshold:
		return RankArtist
	case pixelsPainted >= painterThreshold:
		return RankPainter
	default:
		return RankVisitor
	}
}
