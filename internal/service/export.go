package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/audit"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/pubsub"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/storage"
)

var exportHeader = []string{
	"code", "slug", "gemstone_names", "gemstone_part", "year", "month",
	"piece_number", "checksum", "description", "created_at",
}

// ExportKey is the storage key of a month's export.
func ExportKey(prefix string, year, month int) string {
	return fmt.Sprintf("%s/gemcodes-%04d-%02d.csv", strings.TrimSuffix(prefix, "/"), year, month)
}

// ExportPeriod writes every live code of a month to storage as CSV and
// overwrites any earlier export of the same month.
func (s *codeServiceImpl) ExportPeriod(ctx context.Context, req *domain.ExportRequest) (*domain.ExportResult, error) {
	if err := validatePeriod(req.Year, req.Month); err != nil {
		return nil, err
	}

	key := ExportKey(s.opts.ExportPrefix, req.Year, req.Month)
	ctx = log.WithStr(ctx, log.FieldPeriod, fmt.Sprintf("%04d-%02d", req.Year, req.Month))

	codes, err := s.repo.ListByPeriod(ctx, req.Year, req.Month)
	if err != nil {
		return nil, err
	}

	data, err := encodeCSV(codes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	if err := s.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		return nil, err
	}

	url, err := s.store.GetURL(ctx, key, s.opts.ExportURLTTL)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionExportPeriod, "", key, "period exported")
	s.publish(ctx, pubsub.ChannelExportDone, pubsub.EventExportCompleted, "", pubsub.ExportCompletedPayload{
		Key:   key,
		Year:  req.Year,
		Month: req.Month,
		Rows:  len(codes),
	})

	return &domain.ExportResult{Key: key, URL: url, Rows: len(codes)}, nil
}

// ListExports lists the export files written so far.
func (s *codeServiceImpl) ListExports(ctx context.Context) ([]storage.FileInfo, error) {
	return s.store.List(ctx, s.opts.ExportPrefix)
}

// OpenExport opens the stored export of a month.
func (s *codeServiceImpl) OpenExport(ctx context.Context, year, month int) (io.ReadCloser, string, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, "", err
	}

	key := ExportKey(s.opts.ExportPrefix, year, month)
	rc, err := s.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, key, ErrExportNotFound
		}
		return nil, key, err
	}
	return rc, key, nil
}

func encodeCSV(codes []domain.GemCode) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, c := range codes {
		row := []string{
			c.Code,
			c.Slug,
			domain.GroupKeyFor(c.GemstoneNames),
			c.GemstonePart,
			strconv.Itoa(c.Year),
			strconv.Itoa(c.Month),
			strconv.Itoa(c.PieceNumber),
			c.Checksum,
			c.Description,
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
