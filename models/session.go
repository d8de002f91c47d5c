package models

import (
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionTokenKey is the key under which the Stockbit bearer token is stored
const SessionTokenKey = "stockbit_token"

// Session is a key/value row used as the session store for upstream API
// credentials. The Stockbit bearer token lives here and is refreshed out of
// band (the dashboard's login flow writes it).
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminUser is an operator account used to protect the manual job-retry
// endpoint. Not part of any end-user authentication flow.
type AdminUser struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CheckPassword verifies the password against the stored hash
func (u *AdminUser) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// SetPassword hashes and stores the password
func (u *AdminUser) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// SeedDefaultAdminUser creates the default admin account if none exists
func SeedDefaultAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := AdminUser{Username: "admin", IsActive: true}
	if err := admin.SetPassword("admin123"); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Seeded default admin user (username: admin)")
	return nil
}

// GetSessionValue reads a session value by key
func GetSessionValue(db *gorm.DB, key string) (string, error) {
	var session Session
	if err := db.Where("key = ?", key).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return session.Value, nil
}

// MigrateSessionModels runs database migrations for session-related models
func MigrateSessionModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Session{},
		&AdminUser{},
	)
}
