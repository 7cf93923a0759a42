package model

import (
	"time"

	"github.com/google/uuid"
)

// User は図書館の利用者を表す。
// Passwordは入力専用で、レスポンスには含めない。
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Surname      string    `json:"surname" db:"surname"`
	Email        string    `json:"email" db:"email"`
	PhoneNumber  string    `json:"phoneNumber" db:"phone_number"`
	Password     string    `json:"password,omitempty" db:"-"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Sanitized はパスワード関連のフィールドを除いたコピーを返す。
func (u User) Sanitized() User {
	u.Password = ""
	u.PasswordHash = ""
	return u
}
