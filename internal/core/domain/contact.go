package domain

import "time"

// Contact is a message submitted through the contact form.
type Contact struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:120;not null"`
	Subject   string `gorm:"size:200;not null"`
	Message   string `gorm:"not null"`
	IsRead    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (Contact) TableName() string {
	return "contacts"
}
