package service

import (
	"errors"
	"testing"

	"github.com/connectly/internal/db"
)

func TestGetDesignReturnsDefaultsWithoutPersisting(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	page, _ := seedPageWithLinks(t, "user-a")

	svc := NewDesignService(db.DB)
	design, err := svc.GetForPage(page.ID)
	if err != nil {
		t.Fatalf("get design failed: %v", err)
	}
	if design.ButtonStyle != "rounded" || design.ProfileImageShape != "circle" {
		t.Fatalf("unexpected defaults: %+v", design)
	}

	var count int64
	db.DB.Model(&db.PageDesign{}).Count(&count)
	if count != 0 {
		t.Fatalf("default read should not write rows, found %d", count)
	}
}

func TestSaveDesignUpsertsAndValidates(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	page, _ := seedPageWithLinks(t, "user-a")
	svc := NewDesignService(db.DB)

	pill := "pill"
	saved, err := svc.Save(page.ID, DesignInput{ButtonStyle: &pill})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.ButtonStyle != "pill" {
		t.Fatalf("button style not saved: %q", saved.ButtonStyle)
	}
	// 未触及的字段保留默认值。
	if saved.Spacing != "normal" {
		t.Fatalf("untouched field changed: %q", saved.Spacing)
	}

	bogus := "neon-blink"
	if _, err := svc.Save(page.ID, DesignInput{FontStyle: &bogus}); !errors.Is(err, ErrDesignInvalidValue) {
		t.Fatalf("expected ErrDesignInvalidValue, got %v", err)
	}

	again, err := svc.GetForPage(page.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.ButtonStyle != "pill" {
		t.Fatalf("saved value lost after invalid attempt: %q", again.ButtonStyle)
	}
}
