package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/cache"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/codec"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/repository"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/slug"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/testutil"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/pubsub"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/storage"
)

type memCache struct {
	cache.NoopCodeCache
	mu       sync.Mutex
	items    map[string]domain.GemCode
	setDelay time.Duration
}

func newMemCache() *memCache {
	return &memCache{NoopCodeCache: *cache.NewNoopCodeCache("test"), items: make(map[string]domain.GemCode)}
}

func (c *memCache) Get(_ context.Context, key string) (*domain.GemCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &v, nil
}

func (c *memCache) Set(_ context.Context, key string, code *domain.GemCode, _ time.Duration) error {
	time.Sleep(c.setDelay)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = *code
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

type published struct {
	channel string
	event   *pubsub.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channel, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) byType(eventType string) []*pubsub.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*pubsub.Event
	for _, e := range p.events {
		if e.event.Type == eventType {
			out = append(out, e.event)
		}
	}
	return out
}

// collidingRepo reports the first n creates as duplicates.
type collidingRepo struct {
	repository.CodeRepository
	mu        sync.Mutex
	remaining int
	err       error
}

func (r *collidingRepo) Create(ctx context.Context, code *domain.GemCode) error {
	r.mu.Lock()
	if r.remaining > 0 {
		r.remaining--
		r.mu.Unlock()
		return r.err
	}
	r.mu.Unlock()
	return r.CodeRepository.Create(ctx, code)
}

type fixture struct {
	svc       CodeService
	repo      repository.CodeRepository
	cache     *memCache
	publisher *recordingPublisher
	store     *storage.LocalStorage
}

func newFixture(t *testing.T, wrap func(repository.CodeRepository) repository.CodeRepository) *fixture {
	t.Helper()

	var repo repository.CodeRepository = repository.NewGormCodeRepository(testutil.DB(t))
	if wrap != nil {
		repo = wrap(repo)
	}

	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	slugs, err := slug.New(slug.Config{})
	require.NoError(t, err)

	f := &fixture{
		repo:      repo,
		cache:     newMemCache(),
		publisher: &recordingPublisher{},
		store:     store,
	}
	f.svc = NewCodeService(repo, f.cache, f.publisher, store, slugs, Options{MaxAttempts: 3, MaxBatch: 5})
	return f
}

func generate(t *testing.T, svc CodeService, names []string, year, month int) *domain.GemCode {
	t.Helper()
	code, err := svc.GenerateCode(context.Background(), &domain.GenerateCodeRequest{
		GemstoneNames: names,
		Year:          year,
		Month:         month,
	})
	require.NoError(t, err)
	return code
}

func TestGenerateCodeIssuesSequentialCodes(t *testing.T) {
	f := newFixture(t, nil)

	first := generate(t, f.svc, []string{"Amethyst"}, 2025, 9)
	second := generate(t, f.svc, []string{"Amethyst"}, 2025, 9)

	assert.Equal(t, "GM-2509-AME-001-ADT2", first.Code)
	assert.Equal(t, "GM-2509-AME-002-ADUR", second.Code)
	assert.Equal(t, "AME", first.GemstonePart)
	assert.Equal(t, "ADT2", first.Checksum)
	assert.Len(t, first.Slug, slug.DefaultNanoIDSize)
	assert.NotEqual(t, first.Slug, second.Slug)

	events := f.publisher.byType(pubsub.EventCodeGenerated)
	require.Len(t, events, 2)
	var payload pubsub.CodeGeneratedPayload
	require.NoError(t, events[0].UnmarshalPayload(&payload))
	assert.Equal(t, "GM-2509-AME-001-ADT2", payload.Code)
	assert.Equal(t, 1, payload.PieceNumber)

	assert.True(t, f.cache.has(f.cache.BuildKeyByCode(first.Code)))
	assert.True(t, f.cache.has(f.cache.BuildKeyBySlug(first.Slug)))
}

func TestGenerateCodeMixedGroups(t *testing.T) {
	f := newFixture(t, nil)

	mix := generate(t, f.svc, []string{"Amethyst", "Ruby"}, 2025, 9)
	assert.Equal(t, "GM-2509-MIX-001-ABQZ", mix.Code)

	// Reversed order is its own group, but the checksum ignores order, so its
	// piece 1 renders the same code. The store rejects it and piece 1 is burned.
	reversed := generate(t, f.svc, []string{"Ruby", "Amethyst"}, 2025, 9)
	assert.Equal(t, 2, reversed.PieceNumber)
	assert.Equal(t, "GM-2509-MIX-002-ABRQ", reversed.Code)
	assert.Equal(t, []string{"Ruby", "Amethyst"}, reversed.GemstoneNames)

	again := generate(t, f.svc, []string{"Amethyst", "Ruby"}, 2025, 9)
	assert.Equal(t, 3, again.PieceNumber)
	assert.Equal(t, "GM-2509-MIX-003-ABSF", again.Code)
}

func TestGenerateCodeValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []domain.GenerateCodeRequest{
		{GemstoneNames: nil, Year: 2025, Month: 9},
		{GemstoneNames: []string{"Amethyst", "  "}, Year: 2025, Month: 9},
		{GemstoneNames: []string{"Amethyst"}, Year: 2025, Month: 0},
		{GemstoneNames: []string{"Amethyst"}, Year: 2025, Month: 13},
		{GemstoneNames: []string{"Amethyst"}, Year: 1999, Month: 1},
		{GemstoneNames: []string{"Amethyst"}, Year: 2100, Month: 1},
	}
	for _, req := range cases {
		req := req
		_, err := f.svc.GenerateCode(ctx, &req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "%+v", req)
	}
}

func TestGenerateCodeRetriesOnCollision(t *testing.T) {
	f := newFixture(t, func(r repository.CodeRepository) repository.CodeRepository {
		return &collidingRepo{CodeRepository: r, remaining: 2, err: repository.ErrDuplicateCode}
	})

	code := generate(t, f.svc, []string{"Amethyst"}, 2025, 9)
	// pieces 1 and 2 were burned by the collisions
	assert.Equal(t, 3, code.PieceNumber)
	assert.True(t, codec.Verify(code.Code, []string{"Amethyst"}, 9, 2025, 3))
}

func TestGenerateCodeGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, func(r repository.CodeRepository) repository.CodeRepository {
		return &collidingRepo{CodeRepository: r, remaining: 10, err: repository.ErrDuplicateSlug}
	})

	_, err := f.svc.GenerateCode(context.Background(), &domain.GenerateCodeRequest{
		GemstoneNames: []string{"Amethyst"}, Year: 2025, Month: 9,
	})
	assert.ErrorIs(t, err, ErrCodeSpaceConflict)
	assert.Empty(t, f.publisher.byType(pubsub.EventCodeGenerated))
}

func TestGenerateCodeConcurrent(t *testing.T) {
	f := newFixture(t, nil)

	const n = 12
	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.svc.GenerateCode(context.Background(), &domain.GenerateCodeRequest{
				GemstoneNames: []string{"Opal"}, Year: 2026, Month: 2,
			})
			if assert.NoError(t, err) {
				codes[i] = c.Code
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, n)
}

func TestPreviewCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.PreviewCode(ctx, &domain.PreviewCodeRequest{
		GemstoneNames: []string{"Ruby"}, Year: 2024, Month: 12, PieceNumber: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "GM-2412-RUB-1000-AJUW", resp.Code)
	assert.Equal(t, "RUB", resp.GemstonePart)
	assert.Equal(t, "AJUW", resp.Checksum)

	_, err = f.svc.PreviewCode(ctx, &domain.PreviewCodeRequest{
		GemstoneNames: []string{"Ruby"}, Year: 2024, Month: 12, PieceNumber: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// nothing reserved
	next := generate(t, f.svc, []string{"Ruby"}, 2024, 12)
	assert.Equal(t, 1, next.PieceNumber)
}

func TestParseCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	c, err := f.svc.ParseCode(ctx, "GM-2509-AME-001-ADT2")
	require.NoError(t, err)
	assert.Equal(t, 2025, c.Year)
	assert.Equal(t, 9, c.Month)
	assert.Equal(t, 1, c.PieceNumber)

	_, err = f.svc.ParseCode(ctx, "GM-2513-AME-001-ADT2")
	assert.ErrorIs(t, err, ErrInvalidCodeFormat)
	assert.ErrorIs(t, err, codec.ErrInvalidFormat)
}

func TestVerifyCodePublishesOutcome(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ok, err := f.svc.VerifyCode(ctx, &domain.VerifyCodeRequest{
		Code: "GM-2509-AME-001-ADT2", GemstoneNames: []string{"Amethyst"}, Month: 9, Year: 2025, PieceNumber: 1,
	})
	require.NoError(t, err)
	assert.True(t, ok.Valid)

	bad, err := f.svc.VerifyCode(ctx, &domain.VerifyCodeRequest{
		Code: "GM-2509-AME-001-ADT3", GemstoneNames: []string{"Amethyst"}, Month: 9, Year: 2025, PieceNumber: 1,
	})
	require.NoError(t, err)
	assert.False(t, bad.Valid)

	events := f.publisher.byType(pubsub.EventCodeVerified)
	require.Len(t, events, 2)
	var payload pubsub.CodeVerifiedPayload
	require.NoError(t, events[1].UnmarshalPayload(&payload))
	assert.False(t, payload.Valid)
}

func TestVerifyStoredCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	issued := generate(t, f.svc, []string{"Rose Quartz"}, 2026, 1)

	resp, err := f.svc.VerifyStoredCode(ctx, issued.Code)
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.True(t, resp.Registered)

	tampered := issued.Code[:len(issued.Code)-1] + "Z"
	if tampered == issued.Code {
		tampered = issued.Code[:len(issued.Code)-1] + "Y"
	}
	resp, err = f.svc.VerifyStoredCode(ctx, tampered)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.False(t, resp.Registered)
}

func TestVerifyBatch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req := &domain.BatchVerifyRequest{Items: []domain.VerifyCodeRequest{
		{Code: "GM-2509-AME-001-ADT2", GemstoneNames: []string{"Amethyst"}, Month: 9, Year: 2025, PieceNumber: 1},
		{Code: "GM-2509-AME-002-ADUR", GemstoneNames: []string{"Amethyst"}, Month: 9, Year: 2025, PieceNumber: 1},
		{Code: "GM-2509-MIX-001-ABQZ", GemstoneNames: []string{"Amethyst", "Ruby"}, Month: 9, Year: 2025, PieceNumber: 1},
		{Code: "garbage"},
	}}

	resp, err := f.svc.VerifyBatch(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	assert.True(t, resp.Results[0].Valid)
	assert.False(t, resp.Results[1].Valid)
	assert.True(t, resp.Results[2].Valid)
	assert.False(t, resp.Results[3].Valid)
	assert.Equal(t, "garbage", resp.Results[3].Code)
	assert.Equal(t, 2, resp.ValidCount)

	tooMany := &domain.BatchVerifyRequest{Items: make([]domain.VerifyCodeRequest, 6)}
	_, err = f.svc.VerifyBatch(ctx, tooMany)
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	_, err = f.svc.VerifyBatch(ctx, &domain.BatchVerifyRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGetCodeAndResolveSlug(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	issued := generate(t, f.svc, []string{"Emerald"}, 2025, 5)

	got, err := f.svc.GetCode(ctx, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, got.ID)

	bySlug, err := f.svc.ResolveSlug(ctx, issued.Slug)
	require.NoError(t, err)
	assert.Equal(t, issued.Code, bySlug.Code)

	_, err = f.svc.GetCode(ctx, "GM-2505-EME-099-AAAA")
	assert.ErrorIs(t, err, ErrCodeNotFound)
	_, err = f.svc.ResolveSlug(ctx, "0000")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestGetCodeServesFromCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cached := domain.GemCode{Code: "GM-2509-AME-050-XXXX", Slug: "cachedslug"}
	require.NoError(t, f.cache.Set(ctx, f.cache.BuildKeyByCode(cached.Code), &cached, time.Minute))

	got, err := f.svc.GetCode(ctx, cached.Code)
	require.NoError(t, err)
	assert.Equal(t, "cachedslug", got.Slug)
}

func TestListCodes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	generate(t, f.svc, []string{"Amethyst"}, 2025, 9)
	generate(t, f.svc, []string{"Amethyst"}, 2025, 9)
	generate(t, f.svc, []string{"Ruby"}, 2025, 9)

	resp, err := f.svc.ListCodes(ctx, &domain.ListCodesRequest{Gemstone: "ame", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Len(t, resp.Codes, 1)

	resp, err = f.svc.ListCodes(ctx, &domain.ListCodesRequest{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, resp.PageSize)
	assert.Equal(t, 3, resp.Total)

	_, err = f.svc.ListCodes(ctx, &domain.ListCodesRequest{Month: 14})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDeleteCodeEvictsCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	issued := generate(t, f.svc, []string{"Jade"}, 2025, 3)
	codeKey := f.cache.BuildKeyByCode(issued.Code)
	slugKey := f.cache.BuildKeyBySlug(issued.Slug)
	require.True(t, f.cache.has(codeKey))
	require.True(t, f.cache.has(slugKey))

	require.NoError(t, f.svc.DeleteCode(ctx, issued.Code))
	assert.False(t, f.cache.has(codeKey))
	assert.False(t, f.cache.has(slugKey))

	_, err := f.svc.GetCode(ctx, issued.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
	assert.ErrorIs(t, f.svc.DeleteCode(ctx, issued.Code), ErrCodeNotFound)
	assert.Len(t, f.publisher.byType(pubsub.EventCodeDeleted), 1)

	// deleted piece numbers are not reused
	next := generate(t, f.svc, []string{"Jade"}, 2025, 3)
	assert.Equal(t, 2, next.PieceNumber)
}

func TestDeleteCodeRightAfterGenerateWithSlowCache(t *testing.T) {
	f := newFixture(t, nil)
	f.cache.setDelay = 50 * time.Millisecond
	ctx := context.Background()

	issued := generate(t, f.svc, []string{"Jade"}, 2025, 3)
	require.NoError(t, f.svc.DeleteCode(ctx, issued.Code))
	time.Sleep(200 * time.Millisecond)

	_, err := f.svc.GetCode(ctx, issued.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
	_, err = f.svc.ResolveSlug(ctx, issued.Slug)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	resp, err := f.svc.VerifyStoredCode(ctx, issued.Code)
	require.NoError(t, err)
	assert.False(t, resp.Registered)
	assert.False(t, resp.Valid)
}

// pausingRepo holds the first GetByCode after it has read the row, until
// release is closed.
type pausingRepo struct {
	repository.CodeRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (r *pausingRepo) GetByCode(ctx context.Context, code string) (*domain.GemCode, error) {
	record, err := r.CodeRepository.GetByCode(ctx, code)
	paused := false
	r.once.Do(func() { paused = true })
	if paused {
		close(r.loaded)
		<-r.release
	}
	return record, err
}

func TestLookupOverlappingDeleteDoesNotRecache(t *testing.T) {
	paused := &pausingRepo{loaded: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, func(r repository.CodeRepository) repository.CodeRepository {
		paused.CodeRepository = r
		return paused
	})
	ctx := context.Background()

	issued := generate(t, f.svc, []string{"Onyx"}, 2025, 6)
	codeKey := f.cache.BuildKeyByCode(issued.Code)
	slugKey := f.cache.BuildKeyBySlug(issued.Slug)
	require.NoError(t, f.cache.Delete(ctx, codeKey, slugKey))

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.GetCode(ctx, issued.Code)
		done <- err
	}()

	<-paused.loaded
	require.NoError(t, f.svc.DeleteCode(ctx, issued.Code))
	close(paused.release)
	require.NoError(t, <-done)

	assert.False(t, f.cache.has(codeKey))
	assert.False(t, f.cache.has(slugKey))
	_, err := f.svc.GetCode(ctx, issued.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestGetCodeSurvivesCancelledCaller(t *testing.T) {
	f := newFixture(t, nil)

	issued := generate(t, f.svc, []string{"Topaz"}, 2025, 7)
	require.NoError(t, f.cache.Delete(context.Background(),
		f.cache.BuildKeyByCode(issued.Code), f.cache.BuildKeyBySlug(issued.Slug)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := f.svc.GetCode(ctx, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, issued.Slug, got.Slug)
}

func TestGemstoneLookups(t *testing.T) {
	f := newFixture(t, nil)

	a := f.svc.ResolveAbbreviation("smoky quartz")
	assert.Equal(t, "SMO", a.Abbreviation)
	assert.Equal(t, "smoky quartz", a.Name)

	all := f.svc.ListGemstones()
	require.NotEmpty(t, all)
	for _, g := range all {
		assert.Len(t, g.Abbreviation, 3)
	}
}

func TestExportPeriod(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	generate(t, f.svc, []string{"Amethyst"}, 2025, 9)
	generate(t, f.svc, []string{"Amethyst", "Ruby"}, 2025, 9)
	generate(t, f.svc, []string{"Amethyst"}, 2025, 10)

	res, err := f.svc.ExportPeriod(ctx, &domain.ExportRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	assert.Equal(t, "exports/gemcodes-2025-09.csv", res.Key)
	assert.Equal(t, "/exports/gemcodes-2025-09.csv", res.URL)
	assert.Equal(t, 2, res.Rows)

	rc, key, err := f.svc.OpenExport(ctx, 2025, 9)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, res.Key, key)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	// rows are grouped by the JSON group key, then ordered by piece
	assert.Equal(t, "GM-2509-MIX-001-ABQZ", records[1][0])
	assert.Equal(t, `["Amethyst","Ruby"]`, records[1][2])
	assert.Equal(t, "GM-2509-AME-001-ADT2", records[2][0])
	assert.Equal(t, `["Amethyst"]`, records[2][2])
	assert.Equal(t, "1", records[2][6])

	files, err := f.svc.ListExports(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.Key, files[0].Key)

	assert.Len(t, f.publisher.byType(pubsub.EventExportCompleted), 1)
}

func TestExportPeriodErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.ExportPeriod(ctx, &domain.ExportRequest{Year: 2025, Month: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = f.svc.OpenExport(ctx, 2025, 4)
	assert.ErrorIs(t, err, ErrExportNotFound)

	empty, err := f.svc.ExportPeriod(ctx, &domain.ExportRequest{Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Rows)
}
