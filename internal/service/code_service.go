package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/audit"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/cache"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/codec"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/repository"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/slug"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/pubsub"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/storage"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidCodeFormat = codec.ErrInvalidFormat
	ErrCodeNotFound      = errors.New("code not found")
	ErrCodeSpaceConflict = errors.New("could not allocate a unique code")
	ErrBatchTooLarge     = errors.New("batch too large")
	ErrExportNotFound    = errors.New("export not found")
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultMaxAttempts = 5
	defaultMaxBatch    = 100
	verifyConcurrency  = 8
	cacheWriteTimeout  = 2 * time.Second
	lookupTimeout      = 5 * time.Second

	minYear = 2000
	maxYear = 2099
)

// Options tunes a code service. Zero values fall back to defaults.
type Options struct {
	MaxAttempts  int
	MaxBatch     int
	CacheTTL     time.Duration
	ExportPrefix string
	ExportURLTTL time.Duration
}

// codeServiceImpl implements CodeService interface.
type codeServiceImpl struct {
	repo      repository.CodeRepository
	cache     cache.CodeCache
	publisher pubsub.Publisher
	store     storage.Storage
	slugs     slug.Generator
	opts      Options
	sf        singleflight.Group

	// evictions counts deletes; cache writes that overlap one are undone.
	evictions atomic.Uint64
}

// NewCodeService creates a new code service.
func NewCodeService(
	repo repository.CodeRepository,
	codeCache cache.CodeCache,
	publisher pubsub.Publisher,
	store storage.Storage,
	slugs slug.Generator,
	opts Options,
) CodeService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.MaxBatch < 1 {
		opts.MaxBatch = defaultMaxBatch
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = "exports"
	}
	if opts.ExportURLTTL <= 0 {
		opts.ExportURLTTL = time.Hour
	}

	return &codeServiceImpl{
		repo:      repo,
		cache:     codeCache,
		publisher: publisher,
		store:     store,
		slugs:     slugs,
		opts:      opts,
	}
}

// GenerateCode reserves the next piece number for the gemstone group and
// persists the resulting code. A collision on the code or the slug burns the
// reserved number and tries again with a fresh one.
func (s *codeServiceImpl) GenerateCode(ctx context.Context, req *domain.GenerateCodeRequest) (*domain.GemCode, error) {
	if err := validateNames(req.GemstoneNames); err != nil {
		return nil, err
	}
	if err := validatePeriod(req.Year, req.Month); err != nil {
		return nil, err
	}

	groupKey := domain.GroupKeyFor(req.GemstoneNames)
	ctx = log.WithStr(ctx, log.FieldGroupKey, groupKey)
	l := log.Ctx(ctx)

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		piece, err := s.repo.NextSequence(ctx, groupKey, req.Year, req.Month)
		if err != nil {
			return nil, err
		}

		publicSlug, err := s.slugs.Generate()
		if err != nil {
			return nil, err
		}

		full := codec.Generate(req.GemstoneNames, req.Month, req.Year, piece)
		gen := s.evictions.Load()
		record := &domain.GemCode{
			Code:          full,
			Slug:          publicSlug,
			GemstoneNames: append([]string(nil), req.GemstoneNames...),
			GemstonePart:  codec.GemstonePart(req.GemstoneNames),
			Year:          req.Year,
			Month:         req.Month,
			PieceNumber:   piece,
			Checksum:      full[len(full)-4:],
			Description:   req.Description,
		}

		err = s.repo.Create(ctx, record)
		if errors.Is(err, repository.ErrDuplicateCode) || errors.Is(err, repository.ErrDuplicateSlug) {
			l.Warn().Err(err).Str(log.FieldCode, full).Int("attempt", attempt).Msg("code collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		audit.Log(ctx, audit.ActionGenerateCode, record.Code, "code generated")
		s.publish(ctx, pubsub.ChannelCodeGenerated, pubsub.EventCodeGenerated, record.Code, pubsub.CodeGeneratedPayload{
			Code:          record.Code,
			Slug:          record.Slug,
			GemstoneNames: record.GemstoneNames,
			Year:          record.Year,
			Month:         record.Month,
			PieceNumber:   record.PieceNumber,
		})
		s.cacheRecord(ctx, record, gen)

		return record, nil
	}

	return nil, ErrCodeSpaceConflict
}

// PreviewCode renders a code without reserving or persisting anything.
func (s *codeServiceImpl) PreviewCode(ctx context.Context, req *domain.PreviewCodeRequest) (*domain.PreviewCodeResponse, error) {
	if err := validateNames(req.GemstoneNames); err != nil {
		return nil, err
	}
	if err := validatePeriod(req.Year, req.Month); err != nil {
		return nil, err
	}
	if req.PieceNumber < 1 {
		return nil, fmt.Errorf("%w: piece_number must be at least 1", ErrInvalidRequest)
	}

	full := codec.Generate(req.GemstoneNames, req.Month, req.Year, req.PieceNumber)
	return &domain.PreviewCodeResponse{
		Code:         full,
		GemstonePart: codec.GemstonePart(req.GemstoneNames),
		Checksum:     full[len(full)-4:],
	}, nil
}

// ParseCode splits a code into its components.
func (s *codeServiceImpl) ParseCode(ctx context.Context, code string) (*codec.Components, error) {
	c, ok := codec.Parse(code)
	if !ok {
		return nil, ErrInvalidCodeFormat
	}
	return c, nil
}

// VerifyCode checks a code against caller supplied ground truth.
func (s *codeServiceImpl) VerifyCode(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.VerifyCodeResponse, error) {
	resp := verify(req)
	s.publish(ctx, pubsub.ChannelCodeVerified, pubsub.EventCodeVerified, req.Code, pubsub.CodeVerifiedPayload{
		Code:  resp.Code,
		Valid: resp.Valid,
	})
	return &resp, nil
}

// VerifyStoredCode recomputes a code from the record stored for it. An
// unknown code is reported as not registered rather than as an error.
func (s *codeServiceImpl) VerifyStoredCode(ctx context.Context, code string) (*domain.StoredVerifyResponse, error) {
	record, err := s.GetCode(ctx, code)
	if errors.Is(err, ErrCodeNotFound) {
		return &domain.StoredVerifyResponse{Code: code}, nil
	}
	if err != nil {
		return nil, err
	}

	valid := codec.Verify(code, record.GemstoneNames, record.Month, record.Year, record.PieceNumber)
	s.publish(ctx, pubsub.ChannelCodeVerified, pubsub.EventCodeVerified, code, pubsub.CodeVerifiedPayload{
		Code:  code,
		Valid: valid,
	})

	return &domain.StoredVerifyResponse{Code: code, Valid: valid, Registered: true}, nil
}

// VerifyBatch verifies every item concurrently. Results keep request order.
func (s *codeServiceImpl) VerifyBatch(ctx context.Context, req *domain.BatchVerifyRequest) (*domain.BatchVerifyResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrInvalidRequest)
	}
	if len(req.Items) > s.opts.MaxBatch {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(req.Items), s.opts.MaxBatch)
	}

	results := make([]domain.VerifyCodeResponse, len(req.Items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for i := range req.Items {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = verify(&req.Items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}

	l := log.Ctx(ctx)
	l.Debug().Int("items", len(results)).Int("valid", valid).Msg("batch verified")

	return &domain.BatchVerifyResponse{Results: results, ValidCount: valid}, nil
}

func verify(req *domain.VerifyCodeRequest) domain.VerifyCodeResponse {
	return domain.VerifyCodeResponse{
		Code:  req.Code,
		Valid: codec.Verify(req.Code, req.GemstoneNames, req.Month, req.Year, req.PieceNumber),
	}
}

// GetCode retrieves a code record, cache first.
func (s *codeServiceImpl) GetCode(ctx context.Context, code string) (*domain.GemCode, error) {
	return s.lookup(ctx, s.cache.BuildKeyByCode(code), func(ctx context.Context) (*domain.GemCode, error) {
		return s.repo.GetByCode(ctx, code)
	})
}

// ResolveSlug returns the code record behind a public slug.
func (s *codeServiceImpl) ResolveSlug(ctx context.Context, publicSlug string) (*domain.GemCode, error) {
	if ok, reason := s.slugs.Validate(publicSlug); !ok {
		// slugs minted under another scheme are still looked up
		l := log.Ctx(ctx)
		l.Debug().Str(log.FieldSlug, publicSlug).Str("reason", reason).Msg("slug does not match current scheme")
	}

	return s.lookup(ctx, s.cache.BuildKeyBySlug(publicSlug), func(ctx context.Context) (*domain.GemCode, error) {
		return s.repo.GetBySlug(ctx, publicSlug)
	})
}

func (s *codeServiceImpl) lookup(ctx context.Context, cacheKey string, load func(context.Context) (*domain.GemCode, error)) (*domain.GemCode, error) {
	result, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		// waiters share this load, so it must not end with the first caller
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		cached, err := s.cache.Get(ctx, cacheKey)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("cache get error")
		}

		gen := s.evictions.Load()
		record, err := load(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrCodeNotFound) {
				return nil, ErrCodeNotFound
			}
			return nil, err
		}

		s.cacheRecord(ctx, record, gen)
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*domain.GemCode), nil
}

// ListCodes lists codes with pagination.
func (s *codeServiceImpl) ListCodes(ctx context.Context, req *domain.ListCodesRequest) (*domain.ListCodesResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > maxPageSize {
		req.PageSize = defaultPageSize
	}
	if req.Month < 0 || req.Month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidRequest)
	}

	filter := domain.CodeFilter{
		Year:         req.Year,
		Month:        req.Month,
		GemstonePart: strings.ToUpper(strings.TrimSpace(req.Gemstone)),
	}

	codes, total, err := s.repo.List(ctx, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	return &domain.ListCodesResponse{
		Codes:      codes,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: (total + req.PageSize - 1) / req.PageSize,
	}, nil
}

// DeleteCode soft-deletes a code and evicts it from the cache.
func (s *codeServiceImpl) DeleteCode(ctx context.Context, code string) error {
	record, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return ErrCodeNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return ErrCodeNotFound
		}
		return err
	}

	s.evictions.Add(1)
	keys := s.recordKeys(record)
	for _, key := range keys {
		s.sf.Forget(key)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldCode, code).Msg("cache delete error")
	}

	audit.Log(ctx, audit.ActionDeleteCode, code, "code deleted")
	s.publish(ctx, pubsub.ChannelCodeDeleted, pubsub.EventCodeDeleted, code, pubsub.CodeDeletedPayload{Code: code})
	return nil
}

// ResolveAbbreviation returns the three letter code for a gemstone name.
func (s *codeServiceImpl) ResolveAbbreviation(name string) domain.GemstoneAbbreviation {
	return domain.GemstoneAbbreviation{Name: name, Abbreviation: codec.ResolveAbbreviation(name)}
}

// ListGemstones returns the abbreviation table in lookup order.
func (s *codeServiceImpl) ListGemstones() []domain.GemstoneAbbreviation {
	table := codec.Abbreviations()
	out := make([]domain.GemstoneAbbreviation, len(table))
	for i, a := range table {
		out[i] = domain.GemstoneAbbreviation{Name: a[0], Abbreviation: a[1]}
	}
	return out
}

func (s *codeServiceImpl) publish(ctx context.Context, channel, eventType, code string, payload interface{}) {
	event, err := pubsub.NewEvent(eventType, code, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, channel, event)
	}
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("channel", channel).Str(log.FieldCode, code).Msg("failed to publish event")
	}
}

func (s *codeServiceImpl) recordKeys(record *domain.GemCode) []string {
	return []string{s.cache.BuildKeyByCode(record.Code), s.cache.BuildKeyBySlug(record.Slug)}
}

// cacheRecord stores record under its code and slug keys. gen is the
// eviction count observed before record was read or written; if a delete
// has happened since, the keys are evicted again.
func (s *codeServiceImpl) cacheRecord(ctx context.Context, record *domain.GemCode, gen uint64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	l := log.Ctx(ctx)

	keys := s.recordKeys(record)
	for _, key := range keys {
		if err := s.cache.Set(ctx, key, record, s.opts.CacheTTL); err != nil {
			l.Warn().Err(err).Str("key", key).Msg("cache set error")
		}
	}

	if s.evictions.Load() != gen {
		if err := s.cache.Delete(ctx, keys...); err != nil {
			l.Warn().Err(err).Str(log.FieldCode, record.Code).Msg("cache delete error")
		}
	}
}

func validateNames(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: at least one gemstone name is required", ErrInvalidRequest)
	}
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: gemstone_names[%d] is blank", ErrInvalidRequest, i)
		}
	}
	return nil
}

func validatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidRequest)
	}
	if year < minYear || year > maxYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrInvalidRequest, minYear, maxYear)
	}
	return nil
}
