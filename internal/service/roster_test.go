package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository/mocks"
	"pixel-canvas/internal/service"
)

func TestRosterService_BuildRoster_RanksByContribution(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	svc := service.NewRosterService(mockUserRepo)
	ctx := context.Background()

	ids := []string{"u1", "u2", "u3", "u4", "u5"}
	users := []domain.User{
		{ID: "u1", Username: "zero", AuthType: domain.AuthTypeGuest, PixelsPainted: 0},
		{ID: "u2", Username: "nine", AuthType: domain.AuthTypeLocal, PixelsPainted: 9},
		{ID: "u3", Username: "ten", AuthType: domain.AuthTypeLocal, PixelsPainted: 10},
		{ID: "u4", Username: "thirty", AuthType: domain.AuthTypeGitHub, PixelsPainted: 30},
		{ID: "u5", Username: "boss", AuthType: domain.AuthTypeLocal, PixelsPainted: 2, IsAdmin: true},
	}
	mockUserRepo.On("FindByIDs", ctx, ids).Return(users, nil).Once()

	// Act
	roster, err := svc.BuildRoster(ctx, ids)

	// Assert
	require.NoError(t, err)
	require.Len(t, roster, 5)

	byID := make(map[string]service.RosterEntry, len(roster))
	for _, e := range roster {
		byID[e.ID] = e
	}
	assert.Equal(t, service.RankVisitor, byID["u1"].Rank)
	assert.Equal(t, service.RankVisitor, byID["u2"].Rank, "9 次仍是 visitor，阈值是闭区间下界")
	assert.Equal(t, service.RankPainter, byID["u3"].Rank)
	assert.Equal(t, service.RankArtist, byID["u4"].Rank)
	assert.Equal(t, service.RankModerator, byID["u5"].Rank, "管理员段位不看计数")
	assert.True(t, byID["u5"].IsAdmin)

	mockUserRepo.AssertExpectations(t)
}

func TestRosterService_BuildRoster_SortedByPixelsThenName(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	svc := service.NewRosterService(mockUserRepo)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	users := []domain.User{
		{ID: "a", Username: "mallory", PixelsPainted: 5},
		{ID: "b", Username: "alice", PixelsPainted: 5},
		{ID: "c", Username: "bob", PixelsPainted: 50},
	}
	mockUserRepo.On("FindByIDs", ctx, ids).Return(users, nil).Once()

	// Act
	roster, err := svc.BuildRoster(ctx, ids)

	// Assert
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "bob", roster[0].Name)
	assert.Equal(t, "alice", roster[1].Name, "同计数按名字升序")
	assert.Equal(t, "mallory", roster[2].Name)
}

func TestRosterService_BuildRoster_EmptyInput(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	svc := service.NewRosterService(mockUserRepo)

	// Act
	roster, err := svc.BuildRoster(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, roster)
	mockUserRepo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestRosterService_BuildRoster_RepoFailure(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	svc := service.NewRosterService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("FindByIDs", ctx, []string{"u1"}).Return(nil, errors.New("db gone")).Once()

	// Act
	roster, err := svc.BuildRoster(ctx, []string{"u1"})

	// Assert
	require.Error(t, err)
	assert.Nil(t, roster)
}
