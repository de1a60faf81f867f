package entity

import "time"

// LegacyUser is a row of the pre-migration users table. The table name is
// configured at runtime, so queries go through db.Table(name).
type LegacyUser struct {
	UserID         int       `gorm:"column:user_id;primaryKey"`
	Username       string    `gorm:"column:username;size:50"`
	Email          string    `gorm:"column:email;size:100"`
	Password       *string   `gorm:"column:password;size:255"`
	ProfilePicture *string   `gorm:"column:profile_picture;size:500"`
	Bio            *string   `gorm:"column:bio;size:1000"`
	CreateDate     time.Time `gorm:"column:create_date"`
}
