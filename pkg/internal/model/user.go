// Package model 定义持久化模型.
package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户记录，Username 同时作为音频子域名.
type User struct {
	ID           uint   `gorm:"primaryKey"                    json:"id"`
	Username     string `gorm:"size:63;uniqueIndex;not null"  json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null"             json:"-"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
