package models

import "time"

// Account is a registered user. Username holds the email address.
type Account struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string    `gorm:"size:180;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Roles        string    `gorm:"type:text;not null"        json:"-"`
	FirstName    string    `gorm:"size:100"                  json:"firstName"`
	LastName     string    `gorm:"size:100"                  json:"lastName"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (Account) TableName() string { return "users" }

// RefreshToken stores the sha256 of an opaque refresh token, never the token itself.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                json:"id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Username  string    `gorm:"size:180;index;not null"   json:"username"`
	ExpiresAt time.Time `gorm:"index;not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"             json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func All() []any {
	return []any{&Account{}, &RefreshToken{}}
}
