package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type Role struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:50;not null" json:"name"`
	NormalizedName string    `gorm:"size:50;uniqueIndex;not null" json:"-"`
	Description    string    `gorm:"type:text" json:"description"`
	IsActive       bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdDate"`
}

func (r *Role) BeforeSave(tx *gorm.DB) error {
	r.NormalizedName = Normalize(r.Name)
	return nil
}

type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Username           string     `gorm:"size:50;not null" json:"username"`
	NormalizedUsername string     `gorm:"size:50;uniqueIndex;not null" json:"-"`
	Email              string     `gorm:"size:100;not null" json:"email"`
	NormalizedEmail    string     `gorm:"size:100;uniqueIndex;not null" json:"-"`
	EmailConfirmed     bool       `gorm:"not null;default:false" json:"emailConfirmed"`
	PasswordHash       string     `gorm:"size:255;not null" json:"-"`
	SecurityStamp      string     `gorm:"size:36;not null" json:"-"`
	ProfilePicture     *string    `gorm:"size:500" json:"profilePicture"`
	Bio                *string    `gorm:"size:1000" json:"bio"`
	IsActive           bool       `gorm:"not null;default:true" json:"isActive"`
	LegacyUserID       *int       `gorm:"index" json:"legacyUserId,omitempty"`
	LegacyRemapped     bool       `gorm:"not null;default:false" json:"-"`
	AccessFailedCount  int        `gorm:"not null;default:0" json:"-"`
	LockoutEnd         *time.Time `json:"-"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"createDate"`
	Roles              []Role     `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.NormalizedUsername = Normalize(u.Username)
	u.NormalizedEmail = Normalize(u.Email)
	if u.SecurityStamp == "" {
		u.SecurityStamp = uuid.NewString()
	}
	return nil
}

// RoleNames lists the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}

func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// LockoutPolicy locks an account after MaxAttempts consecutive failed
// sign-ins. Zero values fall back to 5 attempts and 5 minutes.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

func (p LockoutPolicy) WithDefaults() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Duration <= 0 {
		p.Duration = 5 * time.Minute
	}
	return p
}

// RecordFailedLogin counts a failed sign-in and reports whether it locked
// the account. The caller persists the user.
func (u *User) RecordFailedLogin(now time.Time, policy LockoutPolicy) bool {
	policy = policy.WithDefaults()
	u.AccessFailedCount++
	if u.AccessFailedCount < policy.MaxAttempts {
		return false
	}
	end := now.Add(policy.Duration)
	u.LockoutEnd = &end
	u.AccessFailedCount = 0
	return true
}

// ClearFailedLogins resets the failure counter and lockout, reporting
// whether anything changed.
func (u *User) ClearFailedLogins() bool {
	if u.AccessFailedCount == 0 && u.LockoutEnd == nil {
		return false
	}
	u.AccessFailedCount = 0
	u.LockoutEnd = nil
	return true
}

// Normalize is the case-insensitive lookup key for user names, emails and
// role names.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
