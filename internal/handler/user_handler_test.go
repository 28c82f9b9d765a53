package handler

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/connectly/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func TestGetMe(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	c, w := authedJSONContext(t, "user-a", http.MethodGet, "/api/me", nil)
	api.GetMe(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	user, ok := decodeBody(t, w)["user"].(map[string]any)
	if !ok {
		t.Fatalf("missing user payload: %s", w.Body.String())
	}
	if user["id"] != "user-a" || user["email"] != "user-a@example.com" {
		t.Fatalf("unexpected user payload: %v", user)
	}
}

func TestUpdateMePartial(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	c, w := authedJSONContext(t, "user-a", http.MethodPatch, "/api/me", map[string]any{
		"firstName": "Ada",
	})
	api.UpdateMe(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var user db.User
	db.DB.First(&user, "id = ?", "user-a")
	if user.FirstName != "Ada" {
		t.Fatalf("first name not updated: %q", user.FirstName)
	}
}

func TestUploadAvatarResizesAndStoresPNG(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	// 1024x512 的空白图，要求缩放到 512 以内。
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1024, 512))); err != nil {
		t.Fatalf("failed to encode fixture image: %v", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(img.Bytes()); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/me/avatar", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(userContextKey, "user-a")

	api.UploadAvatar(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var user db.User
	db.DB.First(&user, "id = ?", "user-a")
	if !strings.HasPrefix(user.AvatarURL, "/static/uploads/avatar-") || !strings.HasSuffix(user.AvatarURL, ".png") {
		t.Fatalf("unexpected avatar url: %q", user.AvatarURL)
	}

	stored, err := os.Open(filepath.Join(api.uploadDir, filepath.Base(user.AvatarURL)))
	if err != nil {
		t.Fatalf("stored avatar missing: %v", err)
	}
	defer stored.Close()

	decoded, err := png.Decode(stored)
	if err != nil {
		t.Fatalf("stored avatar not decodable png: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 512 || bounds.Dy() != 256 {
		t.Fatalf("expected 512x256 after resize, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestUploadAvatarRejectsNonImage(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, _ := form.CreateFormFile("avatar", "avatar.txt")
	part.Write([]byte("not an image"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/me/avatar", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(userContextKey, "user-a")

	api.UploadAvatar(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestDeleteMeRemovesAccountAndSession(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	seedPage(t, "user-a", "Mine", "mine", false)

	r := gin.New()
	r.Use(sessions.Sessions("connectly_session", cookie.NewStore([]byte("test-secret"))))
	r.DELETE("/api/me", func(c *gin.Context) {
		c.Set(userContextKey, "user-a")
		api.DeleteMe(c)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var users, pages int64
	db.DB.Model(&db.User{}).Where("id = ?", "user-a").Count(&users)
	db.DB.Model(&db.Page{}).Where("user_id = ?", "user-a").Count(&pages)
	if users != 0 || pages != 0 {
		t.Fatalf("delete left rows: users=%d pages=%d", users, pages)
	}
}
