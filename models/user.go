package models

import "time"

const (
	UserTable   = "lab_users"
	InviteTable = "lab_invites"
)

// Roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName string `gorm:"size:255;not null" json:"displayName"`
	Role        string `gorm:"size:20;not null;default:'member'" json:"role"`

	PasswordHash string `gorm:"size:100;not null" json:"-"`
	// PinHash is empty until the person is first picked in a check-out or
	// adjustment flow and creates their PIN.
	PinHash string `gorm:"size:100" json:"-"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// HasPin reports whether a PIN is on file; the flow engine uses it to decide
// between PIN creation and PIN verification.
func (u *User) HasPin() bool { return u.PinHash != "" }

type Invite struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"index;size:255;not null" json:"email"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedBy string     `gorm:"size:255" json:"createdBy"`
	// Bootstrap marks the seed-time invite that admits the first
	// administrator. Regular invites admit members.
	Bootstrap bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Invite) TableName() string { return InviteTable }
