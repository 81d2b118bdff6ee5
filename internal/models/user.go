package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleUser     UserRole = "user"
	UserRoleProvider UserRole = "provider"
)

// User is one registered identity. The same email may register once as a
// "user" and once as a "provider"; the two rows are distinct identities,
// hence the composite unique index on (email, role).
type User struct {
	gorm.Model
	Email        string `json:"email" gorm:"column:email;uniqueIndex:idx_users_email_role;not null"`
	Role         string `json:"role" gorm:"column:role;uniqueIndex:idx_users_email_role;not null"`
	Password     string `json:"-" gorm:"-:all"` // Temporary field for password handling
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	FirstName    string `json:"first_name" gorm:"column:first_name;not null"`
	LastName     string `json:"last_name" gorm:"column:last_name;not null"`
	Phone        string `json:"phone" gorm:"column:phone"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
