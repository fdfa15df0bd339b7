package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"excos_backend/internal/logger"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/internal/storage"
	"excos_backend/pkg/apperrors"

	"github.com/google/uuid"
)

type UploadService interface {
	Upload(ctx context.Context, userID string, uploadType dto.UploadType, file *multipart.FileHeader) (*dto.UploadResponse, error)
}

type uploadService struct {
	storage      storage.Storage
	userRepo     repositories.UserRepository
	maxSize      int64
	allowedTypes map[string]bool
}

func NewUploadService(store storage.Storage, userRepo repositories.UserRepository, maxSize int64, allowedTypes []string) UploadService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &uploadService{
		storage:      store,
		userRepo:     userRepo,
		maxSize:      maxSize,
		allowedTypes: allowed,
	}
}

// Upload validates and stores a file. Profile uploads also update the
// caller's profile image URL; evidence uploads return a URL the complaint
// form attaches on submission.
func (s *uploadService) Upload(ctx context.Context, userID string, uploadType dto.UploadType, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	if uploadType != dto.UploadTypeProfile && uploadType != dto.UploadTypeEvidence {
		return nil, apperrors.ErrInvalidUploadType
	}

	if file.Size > s.maxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !s.allowedTypes[contentType] {
		return nil, apperrors.ErrInvalidFileType
	}
	// Profile images must be images; PDFs are evidence-only.
	if uploadType == dto.UploadTypeProfile && !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.ErrInvalidFileType
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	path := fmt.Sprintf("%s/%s%s", uploadType, uuid.New().String(), ext)

	if err := s.storage.Save(ctx, path, src, contentType); err != nil {
		return nil, apperrors.InternalError(err)
	}

	url, err := s.storage.GetURL(ctx, path)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if uploadType == dto.UploadTypeProfile {
		if err := s.userRepo.UpdateProfileImage(userID, url); err != nil {
			// The file is stored; clean it up so it does not orphan.
			if delErr := s.storage.Delete(ctx, path); delErr != nil {
				logger.CtxWarn(ctx, "failed to clean up orphaned upload", "path", path, "error", delErr)
			}
			return nil, apperrors.InternalError(err)
		}
	}

	logger.CtxInfo(ctx, "file uploaded", "path", path, "type", uploadType, "size", file.Size)

	return &dto.UploadResponse{
		URL:         url,
		Path:        path,
		Size:        file.Size,
		ContentType: contentType,
	}, nil
}
