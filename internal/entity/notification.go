package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const NotificationCommentPost = "comment_post"

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	ActorID   uint      `gorm:"not null" json:"actorId"`
	Actor     *User     `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"actor,omitempty"`
	PostID    uint      `json:"postId"`
	CommentID *uint     `json:"commentId,omitempty"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Message   string    `gorm:"size:255;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
