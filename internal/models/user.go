package models

// User represents a Google-authenticated user. Users are created on first
// successful login and never deleted by the application.
type User struct {
	Base
	GoogleID string `gorm:"uniqueIndex;not null" json:"-"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`

	Portfolio    *Portfolio    `gorm:"foreignKey:UserID" json:"portfolio,omitempty"`
	Subscription *Subscription `gorm:"foreignKey:UserID" json:"subscription,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
