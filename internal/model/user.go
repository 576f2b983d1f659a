// Package model 包含了应用的数据模型定义。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(128);not null" json:"-"`
	Role      string    `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
