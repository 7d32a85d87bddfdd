package model

import (
	"time"

	"gorm.io/gorm"
)

// Audio 音频记录. Hash 在创建时计算一次，之后任何更新都不会改动它.
// URL 在未删除记录中唯一（部分唯一索引由迁移创建），Hash 允许重复.
type Audio struct {
	ID           uint     `gorm:"primaryKey"               json:"id"`
	UserID       uint     `gorm:"index;not null"           json:"userId"`
	Hash         string   `gorm:"size:64;index;not null"   json:"hash"`
	OriginalName string   `gorm:"size:512"                 json:"originalName"`
	URL          string   `gorm:"size:255;index;not null"  json:"url"`
	Mimetype     string   `gorm:"size:128"                 json:"mimetype"`
	Size         int64    `json:"size"`
	Visible      bool     `gorm:"not null;default:true"    json:"visible"`
	Duration     *float64 `json:"duration"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
