package notebook

import (
	"time"

	"github.com/google/uuid"
)

type Notebook struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image is an embedded image extracted from a document and moved to object storage.
type Image struct {
	ID         uuid.UUID `json:"id"`
	NotebookID uuid.UUID `json:"notebook_id"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
}
