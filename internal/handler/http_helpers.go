package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userContextKey = "__current_user_id"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// currentUserID 读取 AuthRequired 中间件解析好的用户身份。
// 处理器不自行触碰会话，身份始终显式传递给服务层。
func currentUserID(c *gin.Context) string {
	value, exists := c.Get(userContextKey)
	if !exists {
		return ""
	}
	id, ok := value.(string)
	if !ok {
		return ""
	}
	return id
}
