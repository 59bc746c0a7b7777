package pgstore

import (
	"context"
	"errors"

	"github.com/dkeye/livepoll/internal/domain"
	"gorm.io/gorm"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	row := userModel{
		ID:           string(u.ID),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return logError("create_user", err, "username", u.Username)
	}
	return nil
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*domain.User, error) {
	var row userModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, logError("get_user", err, "username", username)
	}
	return row.toEntity(), nil
}
