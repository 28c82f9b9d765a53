package service

import (
	"testing"

	"github.com/connectly/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{}, &db.Page{}, &db.Link{}, &db.PageDesign{},
		&db.PageVisit{}, &db.PageStatistic{}, &db.PageView{}, &db.LinkClick{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedUser(t *testing.T, id string) *db.User {
	t.Helper()
	user := db.User{ID: id, Email: id + "@example.com"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}

func TestCreatePageRejectsDuplicateSlug(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")

	svc := NewPageService(db.DB)
	if _, err := svc.Create("user-a", PageInput{Title: "Main", Slug: "main"}); err != nil {
		t.Fatalf("first create returned error: %v", err)
	}

	if _, err := svc.Create("user-a", PageInput{Title: "Other", Slug: "main"}); err != ErrSlugTaken {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.Page{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected duplicate create to write no row, found %d pages", count)
	}
}

func TestCreatePageRejectsBadSlug(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")

	svc := NewPageService(db.DB)
	for _, slug := range []string{"", "Has Upper", "space slug", "emoji✨"} {
		if _, err := svc.Create("user-a", PageInput{Title: "Main", Slug: slug}); err != ErrSlugInvalid {
			t.Fatalf("slug %q: expected ErrSlugInvalid, got %v", slug, err)
		}
	}
}

func TestGetPageScopedToOwner(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")
	seedUser(t, "user-b")

	svc := NewPageService(db.DB)
	page, err := svc.Create("user-a", PageInput{Title: "Main", Slug: "main"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if _, err := svc.Get("user-b", page.ID); err != ErrPageNotFound {
		t.Fatalf("expected foreign page to look absent, got %v", err)
	}
	if _, err := svc.Get("user-a", page.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestListPagesFiltersAndPaginates(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")

	svc := NewPageService(db.DB)
	titles := []string{"Portfolio", "Music Links", "Portfolio Archive"}
	for i, title := range titles {
		if _, err := svc.Create("user-a", PageInput{Title: title, Slug: "page-" + string(rune('a'+i))}); err != nil {
			t.Fatalf("seed page %q failed: %v", title, err)
		}
	}

	result, err := svc.List("user-a", PageFilter{Search: "Portfolio", Page: 1, PerPage: 1})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", result.Total)
	}
	if len(result.Pages) != 1 {
		t.Fatalf("expected 1 page in first result page, got %d", len(result.Pages))
	}
	if result.TotalPages != 2 {
		t.Fatalf("expected 2 result pages, got %d", result.TotalPages)
	}
}

func TestUpdatePageSlugConflict(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")

	svc := NewPageService(db.DB)
	if _, err := svc.Create("user-a", PageInput{Title: "First", Slug: "first"}); err != nil {
		t.Fatalf("seed first page failed: %v", err)
	}
	second, err := svc.Create("user-a", PageInput{Title: "Second", Slug: "second"})
	if err != nil {
		t.Fatalf("seed second page failed: %v", err)
	}

	conflicting := "first"
	if _, err := svc.Update("user-a", second.ID, PageUpdateInput{Slug: &conflicting}); err != ErrSlugTaken {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestDeletePageCascadesChildren(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")

	pages := NewPageService(db.DB)
	links := NewLinkService(db.DB)

	page, err := pages.Create("user-a", PageInput{Title: "Main", Slug: "main"})
	if err != nil {
		t.Fatalf("create page failed: %v", err)
	}
	if _, err := links.Create("user-a", page.ID, LinkInput{Title: "GitHub", URL: "https://github.com"}); err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if err := db.DB.Create(&db.LinkClick{LinkID: "x", PageID: page.ID}).Error; err != nil {
		t.Fatalf("seed click failed: %v", err)
	}

	if err := pages.Delete("user-a", page.ID); err != nil {
		t.Fatalf("delete page failed: %v", err)
	}

	var linkCount, clickCount int64
	db.DB.Model(&db.Link{}).Where("page_id = ?", page.ID).Count(&linkCount)
	db.DB.Model(&db.LinkClick{}).Where("page_id = ?", page.ID).Count(&clickCount)
	if linkCount != 0 || clickCount != 0 {
		t.Fatalf("expected cascade to remove children, found %d links %d clicks", linkCount, clickCount)
	}
}

func TestEnsureDefaultCreatesPageOnce(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()
	seedUser(t, "user-a")

	svc := NewPageService(db.DB)
	first, err := svc.EnsureDefault("user-a")
	if err != nil {
		t.Fatalf("ensure default failed: %v", err)
	}
	if first.Title != "My Links" {
		t.Fatalf("expected default title, got %q", first.Title)
	}

	second, err := svc.EnsureDefault("user-a")
	if err != nil {
		t.Fatalf("second ensure default failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected default page to be created only once")
	}
}
