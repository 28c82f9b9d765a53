package service

import (
	"errors"
	"fmt"

	"github.com/connectly/internal/db"
	"github.com/connectly/internal/view"
	"gorm.io/gorm"
)

// ErrDesignInvalidValue 表示某个外观字段取值不在目录内。
var ErrDesignInvalidValue = errors.New("invalid design value")

// DesignService manages per-page design settings.
type DesignService struct {
	db *gorm.DB
}

// NewDesignService returns a new DesignService instance.
func NewDesignService(gdb *gorm.DB) *DesignService {
	return &DesignService{db: gdb}
}

// DesignInput carries partial design updates; nil fields keep their value.
type DesignInput struct {
	ButtonStyle       *string
	BackgroundStyle   *string
	FontStyle         *string
	Layout            *string
	CardShadow        *string
	Spacing           *string
	ProfileImageShape *string
}

// GetForPage 返回页面的外观设置，不存在时返回带默认值的记录（不落库）。
func (s *DesignService) GetForPage(pageID string) (*db.PageDesign, error) {
	var design db.PageDesign
	err := s.db.Where("page_id = ?", pageID).First(&design).Error
	if err == nil {
		return &design, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return defaultDesign(pageID), nil
}

// Save validates and upserts the page design.
func (s *DesignService) Save(pageID string, input DesignInput) (*db.PageDesign, error) {
	var design db.PageDesign
	err := s.db.Where("page_id = ?", pageID).First(&design).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		design = *defaultDesign(pageID)
	}

	for _, field := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"buttonStyle", input.ButtonStyle, &design.ButtonStyle},
		{"backgroundStyle", input.BackgroundStyle, &design.BackgroundStyle},
		{"fontStyle", input.FontStyle, &design.FontStyle},
		{"layout", input.Layout, &design.Layout},
		{"cardShadow", input.CardShadow, &design.CardShadow},
		{"spacing", input.Spacing, &design.Spacing},
		{"profileImageShape", input.ProfileImageShape, &design.ProfileImageShape},
	} {
		if field.value == nil {
			continue
		}
		if !view.IsValidDesignValue(field.name, *field.value) {
			return nil, fmt.Errorf("%w: %s=%s", ErrDesignInvalidValue, field.name, *field.value)
		}
		*field.dst = *field.value
	}

	if err := s.db.Save(&design).Error; err != nil {
		return nil, fmt.Errorf("save page design: %w", err)
	}

	return &design, nil
}

func defaultDesign(pageID string) *db.PageDesign {
	return &db.PageDesign{
		PageID:            pageID,
		ButtonStyle:       "rounded",
		BackgroundStyle:   "solid",
		FontStyle:         "sans",
		Layout:            "centered",
		CardShadow:        "md",
		Spacing:           "normal",
		ProfileImageShape: "circle",
	}
}
