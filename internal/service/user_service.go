package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/connectly/internal/db"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserEmailMissing = errors.New("user email is required")
)

// UserService handles identity-provider backed user records.
type UserService struct {
	db *gorm.DB
}

// NewUserService returns a new UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// IdentityInput 是身份提供方回调中携带的用户信息。
type IdentityInput struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	AvatarURL string
}

// ProfileInput carries mutable profile fields.
type ProfileInput struct {
	FirstName *string
	LastName  *string
}

// EnsureUser 按身份提供方 subject 查找用户，不存在时懒创建。
// 已存在的用户仅同步邮箱变更，不覆盖本地资料字段。
func (s *UserService) EnsureUser(input IdentityInput) (*db.User, error) {
	subject := strings.TrimSpace(input.Subject)
	email := strings.TrimSpace(input.Email)
	if subject == "" || email == "" {
		return nil, ErrUserEmailMissing
	}

	var user db.User
	err := s.db.Where("id = ?", subject).First(&user).Error
	if err == nil {
		if user.Email != email {
			user.Email = email
			if err := s.db.Save(&user).Error; err != nil {
				return nil, fmt.Errorf("sync user email: %w", err)
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = db.User{
		ID:        subject,
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		AvatarURL: strings.TrimSpace(input.AvatarURL),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(userID string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(userID string, input ProfileInput) (*db.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// SetAvatarURL stores the uploaded avatar location on the user.
func (s *UserService) SetAvatarURL(userID, url string) (*db.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	user.AvatarURL = strings.TrimSpace(url)
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return user, nil
}

// Delete removes the user together with all pages and their children.
// 级联在事务内显式执行。
func (s *UserService) Delete(userID string) error {
	if _, err := s.Get(userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var pageIDs []string
		if err := tx.Model(&db.Page{}).Where("user_id = ?", userID).
			Pluck("id", &pageIDs).Error; err != nil {
			return err
		}

		for _, pageID := range pageIDs {
			if err := deletePageCascade(tx, pageID); err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", userID).Delete(&db.User{}).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
