package handler

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/connectly/internal/db"
	"github.com/connectly/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const avatarMaxEdge = 512

type profileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func userPayload(user *db.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"avatarUrl": user.AvatarURL,
		"createdAt": user.CreatedAt,
	}
}

// GetMe 返回当前登录用户信息。
func (a *API) GetMe(c *gin.Context) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("get user failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// UpdateMe 更新当前用户的资料字段。
func (a *API) UpdateMe(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	user, err := a.users.UpdateProfile(currentUserID(c), service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("update profile failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// DeleteMe 删除当前用户及其全部页面与链接，并结束会话。
func (a *API) DeleteMe(c *gin.Context) {
	if err := a.users.Delete(currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("delete user failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// UploadAvatar 处理头像上传：解码、等比缩放到 512px 内、存储为 PNG。
func (a *API) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing avatar file")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unable to read avatar file")
		return
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		respondError(c, http.StatusBadRequest, "avatar must be a valid image")
		return
	}

	resized := scaleToFit(decoded, avatarMaxEdge)

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		log.Printf("create upload dir failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	name := fmt.Sprintf("avatar-%s.png", uuid.NewString())
	out, err := os.Create(filepath.Join(a.uploadDir, name))
	if err != nil {
		log.Printf("create avatar file failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	defer out.Close()

	if err := png.Encode(out, resized); err != nil {
		log.Printf("encode avatar failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := a.users.SetAvatarURL(currentUserID(c), a.uploadURL+"/"+name)
	if err != nil {
		log.Printf("set avatar url failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// scaleToFit 将图片等比缩放到 maxEdge 以内，已经足够小时原样返回。
func scaleToFit(src image.Image, maxEdge int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxEdge && height <= maxEdge {
		return src
	}

	if width >= height {
		height = height * maxEdge / width
		width = maxEdge
	} else {
		width = width * maxEdge / height
		height = maxEdge
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
