package service

import (
	"context"
	"io"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/codec"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/storage"
)

// CodeService defines the interface for gemstone code business logic.
type CodeService interface {
	GenerateCode(ctx context.Context, req *domain.GenerateCodeRequest) (*domain.GemCode, error)
	PreviewCode(ctx context.Context, req *domain.PreviewCodeRequest) (*domain.PreviewCodeResponse, error)
	ParseCode(ctx context.Context, code string) (*codec.Components, error)
	VerifyCode(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.VerifyCodeResponse, error)
	VerifyStoredCode(ctx context.Context, code string) (*domain.StoredVerifyResponse, error)
	VerifyBatch(ctx context.Context, req *domain.BatchVerifyRequest) (*domain.BatchVerifyResponse, error)
	GetCode(ctx context.Context, code string) (*domain.GemCode, error)
	ResolveSlug(ctx context.Context, slug string) (*domain.GemCode, error)
	ListCodes(ctx context.Context, req *domain.ListCodesRequest) (*domain.ListCodesResponse, error)
	DeleteCode(ctx context.Context, code string) error

	ResolveAbbreviation(name string) domain.GemstoneAbbreviation
	ListGemstones() []domain.GemstoneAbbreviation

	ExportPeriod(ctx context.Context, req *domain.ExportRequest) (*domain.ExportResult, error)
	ListExports(ctx context.Context) ([]storage.FileInfo, error)
	// OpenExport returns the stored CSV for a month. The caller closes it.
	OpenExport(ctx context.Context, year, month int) (io.ReadCloser, string, error)
}
