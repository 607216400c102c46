package repository

import (
	"context"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
)

//go:generate mockgen -source=access_repository.go -destination=mock/access_repository.go -package=mock_repository

// AccessRepository defines the interface for access log persistence
type AccessRepository interface {
	RecordAccess(ctx context.Context, record *models.AccessRecord) error
	ListRecentAccess(ctx context.Context, limit int) ([]*models.AccessRecord, error)
	CountByStatus(ctx context.Context) (map[int]int64, error)
	Close() error
}
