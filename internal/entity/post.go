package entity

import "time"

type Post struct {
	ID         uint       `gorm:"primaryKey" json:"postId"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createDate"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime:false" json:"updateDate"`
	UserID     uint       `gorm:"not null;index" json:"userId"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user"`
	Categories []Category `gorm:"many2many:post_categories;constraint:OnDelete:CASCADE" json:"categories"`
	Comments   []Comment  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Content   string     `gorm:"size:1000;not null" json:"content"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createDate"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updateDate"`
	PostID    uint       `gorm:"not null;index" json:"postId"`
	UserID    uint       `gorm:"not null;index" json:"userId"`
	User      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user"`
}
