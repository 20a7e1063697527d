package notebook

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/notebook-api/internal/logging"
	"github.com/redmonkez12/notebook-api/internal/storage"
)

// Repository defines the persistence operations the notebook service needs
type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*Notebook, error)
	Update(ctx context.Context, id uuid.UUID, title, content string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notebook, error)
	AddImage(ctx context.Context, notebookID uuid.UUID, imageURL, imageType string) error
}

// imgSrcPattern matches src attributes of img tags in document HTML.
var imgSrcPattern = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)

// Service handles notebook documents: persistence plus the relocation of
// base64-embedded images into object storage.
type Service struct {
	repo     Repository
	uploader storage.Uploader
	logger   *logging.Logger
}

func NewService(repo Repository, uploader storage.Uploader, logger *logging.Logger) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
	}
}

// Save persists a new notebook document and uploads any base64-embedded
// images to object storage, recording an image row per upload. Image uploads
// are best-effort: a failed upload is logged and skipped, the document save
// itself is never rolled back.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, title, content string) (*Notebook, error) {
	created, err := s.repo.Create(ctx, userID, title, content)
	if err != nil {
		return nil, err
	}

	for _, src := range extractImageSources(content) {
		if !strings.HasPrefix(src, "data:image") {
			continue
		}

		imageURL, imageType, err := s.uploadDataImage(ctx, src)
		if err != nil {
			s.logger.Warn("failed to upload notebook image", "notebook_id", created.ID, "error", err)
			continue
		}

		if err := s.repo.AddImage(ctx, created.ID, imageURL, imageType); err != nil {
			s.logger.Warn("failed to record notebook image", "notebook_id", created.ID, "error", err)
		}
	}

	return created, nil
}

// Update replaces a notebook's title and content
func (s *Service) Update(ctx context.Context, id uuid.UUID, title, content string) error {
	return s.repo.Update(ctx, id, title, content)
}

// ListByUser returns all notebooks belonging to a user
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notebook, error) {
	return s.repo.ListByUser(ctx, userID)
}

// uploadDataImage decodes a data URI (data:image/<ext>;base64,<payload>),
// stores the bytes under a fresh UUID key and returns the public URL and
// image type.
func (s *Service) uploadDataImage(ctx context.Context, dataURI string) (string, string, error) {
	header, encoded, found := strings.Cut(dataURI, ",")
	if !found {
		return "", "", fmt.Errorf("malformed data uri")
	}

	// header looks like "data:image/png;base64"
	imageType := strings.TrimPrefix(header, "data:image/")
	if idx := strings.Index(imageType, ";"); idx != -1 {
		imageType = imageType[:idx]
	}
	if imageType == "" {
		return "", "", fmt.Errorf("missing image type in data uri")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image data: %w", err)
	}

	key := fmt.Sprintf("%s.%s", uuid.New().String(), imageType)
	contentType := fmt.Sprintf("image/%s", imageType)

	imageURL, err := s.uploader.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", "", err
	}

	return imageURL, imageType, nil
}

// extractImageSources returns the src attribute of every img tag in content.
func extractImageSources(content string) []string {
	matches := imgSrcPattern.FindAllStringSubmatch(content, -1)

	sources := make([]string, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, match[1])
	}

	return sources
}
