package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"backend-walkpath/internal/db"

	"github.com/google/uuid"
)

// Limits mirror the upload rules of the mobile client contract.
const maxImageBytes = 10 << 20

var (
	ErrNotImage = errors.New("only image uploads are accepted")
	ErrTooLarge = errors.New("image exceeds 10MB limit")
)

// Service stores route snapshot images on disk and records each stored
// object. The returned ref is the opaque value kept on the path row.
type Service struct {
	db  db.Querier
	dir string
}

func NewService(db db.Querier, dir string) *Service {
	return &Service{db: db, dir: dir}
}

func (s *Service) StoreImage(ctx context.Context, userNo int64, fileName, contentType string, data []byte) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}
	if len(data) > maxImageBytes {
		return "", ErrTooLarge
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	id := uuid.New()
	name := id.String() + filepath.Ext(fileName)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", err
	}

	ref := "/uploads/paths/" + name
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_no, ref, kind)
		VALUES ($1,$2,$3,$4)
	`, id.String(), userNo, ref, "path_image")
	if err != nil {
		return "", err
	}
	return ref, nil
}
