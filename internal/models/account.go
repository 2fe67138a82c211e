package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalystAccount is a compliance analyst/admin login, the subject the JWT in
// internal/auth issues tokens for.
type AnalystAccount struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
