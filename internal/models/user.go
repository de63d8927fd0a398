package models

// User is an admin identity. There is no role model: every user is an admin.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
