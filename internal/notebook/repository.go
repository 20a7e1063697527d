package notebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/notebook-api/internal/database"
)

var ErrNotFound = errors.New("notebook not found")

// BunRepository handles notebook persistence
type BunRepository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new notebook document
func (r *BunRepository) Create(ctx context.Context, userID uuid.UUID, title, content string) (*Notebook, error) {
	dbNotebook := &database.Notebook{
		UserID:  userID,
		Title:   title,
		Content: content,
	}

	_, err := r.db.NewInsert().
		Model(dbNotebook).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}

	return mapDBNotebookToModel(dbNotebook), nil
}

// Update replaces a notebook's title and content
func (r *BunRepository) Update(ctx context.Context, id uuid.UUID, title, content string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Notebook)(nil)).
		Set("title = ?", title).
		Set("content = ?", content).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update notebook: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUser returns all notebooks belonging to a user, newest first
func (r *BunRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notebook, error) {
	var dbNotebooks []*database.Notebook
	err := r.db.NewSelect().
		Model(&dbNotebooks).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}

	notebooks := make([]*Notebook, 0, len(dbNotebooks))
	for _, dbNotebook := range dbNotebooks {
		notebooks = append(notebooks, mapDBNotebookToModel(dbNotebook))
	}

	return notebooks, nil
}

// AddImage records an uploaded image for a notebook
func (r *BunRepository) AddImage(ctx context.Context, notebookID uuid.UUID, imageURL, imageType string) error {
	dbImage := &database.NotebookImage{
		NotebookID: notebookID,
		ImageURL:   imageURL,
		ImageType:  imageType,
	}

	_, err := r.db.NewInsert().
		Model(dbImage).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to add notebook image: %w", err)
	}

	return nil
}

// mapDBNotebookToModel converts database model to domain model
func mapDBNotebookToModel(dbn *database.Notebook) *Notebook {
	return &Notebook{
		ID:        dbn.ID,
		UserID:    dbn.UserID,
		Title:     dbn.Title,
		Content:   dbn.Content,
		CreatedAt: dbn.CreatedAt,
		UpdatedAt: dbn.UpdatedAt,
	}
}
