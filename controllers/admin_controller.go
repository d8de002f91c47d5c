package controllers

import (
	"net/http"
	"time"

	"github.com/rizalgs/adimology/middleware"
	"github.com/rizalgs/adimology/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController issues operator tokens for the protected job endpoints
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an admin controller
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// LoginRequest is the operator login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies operator credentials and returns a JWT
// POST /api/v1/admin/login
func (ac *AdminController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	var user models.AdminUser
	if err := ac.db.Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.IssueToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	now := time.Now()
	ac.db.Model(&user).Update("last_login_at", now)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(middleware.TokenLifetime.Seconds()),
	})
}
