package auth

import "time"

// User is a registered account. HashedPassword carries the bcrypt hash
// (salt and cost embedded) and is never serialized or logged.
type User struct {
	UserID         string    `gorm:"primaryKey" json:"user_id"`
	Username       string    `gorm:"not null;uniqueIndex" json:"username"`
	Password       string    `json:"password" gorm:"-"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`

	Sessions []Session `gorm:"foreignKey:UserID" json:"-"`
}

// Session is a bearer token bound to a user for a fixed window. A token
// moves Active -> Revoked or Active -> Expired and never comes back: expiry
// is decided by timestamp comparison, the revoked flag by logout. Rows stay
// around until the sweep reclaims them.
type Session struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`
	Revoked   bool      `gorm:"not null;default:false" json:"-"`
}

func (User) TableName() string    { return "users" }
func (Session) TableName() string { return "sessions" }
