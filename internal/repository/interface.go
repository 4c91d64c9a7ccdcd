package repository

import (
	"context"
	"errors"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
)

var (
	ErrCodeNotFound  = errors.New("code not found")
	ErrDuplicateCode = errors.New("code already issued")
	ErrDuplicateSlug = errors.New("slug already in use")
)

// CodeRepository defines the interface for gemstone code persistence.
type CodeRepository interface {
	// NextSequence reserves the next piece number for the exact gemstone
	// group (see domain.GroupKeyFor) in the given month.
	NextSequence(ctx context.Context, groupKey string, year, month int) (int, error)
	Create(ctx context.Context, code *domain.GemCode) error
	GetByCode(ctx context.Context, code string) (*domain.GemCode, error)
	GetBySlug(ctx context.Context, slug string) (*domain.GemCode, error)
	List(ctx context.Context, filter domain.CodeFilter, page, pageSize int) ([]domain.GemCode, int, error)
	ListByPeriod(ctx context.Context, year, month int) ([]domain.GemCode, error)
	Delete(ctx context.Context, code string) error
}
