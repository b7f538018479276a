package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	FullName  string    `gorm:"size:100" json:"full_name"`
	AvatarURL string    `gorm:"size:255" json:"avatar_url"`
	Role      UserRole  `gorm:"size:20;default:'student'" json:"role"`
	LastLogin time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}
