package domain

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string // argon2id PHC string
	CreatedAt    time.Time
}
