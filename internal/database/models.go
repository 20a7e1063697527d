package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table model. OTP state lives on the user row: at most
// one outstanding code per user, overwritten unconditionally on re-issue.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username     string     `bun:"username,notnull,unique"`
	Email        string     `bun:"email,notnull,unique"`
	PasswordHash string     `bun:"password_hash,notnull"`
	OTP          *string    `bun:"otp"`
	OTPExpiresAt *time.Time `bun:"otp_expires_at"`
	OTPConsumed  bool       `bun:"otp_consumed,notnull,default:false"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Notebook is the notebooks table model.
type Notebook struct {
	bun.BaseModel `bun:"table:notebooks,alias:n"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Title     string    `bun:"title,notnull"`
	Content   string    `bun:"content"` // full HTML content of the document
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// NotebookImage records an image extracted from a notebook document and
// uploaded to object storage.
type NotebookImage struct {
	bun.BaseModel `bun:"table:notebook_images,alias:ni"`

	ID         uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	NotebookID uuid.UUID `bun:"notebook_id,notnull,type:uuid"`
	ImageURL   string    `bun:"image_url,notnull"`
	ImageType  string    `bun:"image_type,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
