package repository

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/codec"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/testutil"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
)

func newRepo(t *testing.T) *GormCodeRepository {
	t.Helper()
	return NewGormCodeRepository(testutil.DB(t))
}

func issue(t *testing.T, repo *GormCodeRepository, names []string, year, month int, slug string) *domain.GemCode {
	t.Helper()
	ctx := context.Background()

	piece, err := repo.NextSequence(ctx, domain.GroupKeyFor(names), year, month)
	require.NoError(t, err)

	full := codec.Generate(names, month, year, piece)
	c, ok := codec.Parse(full)
	require.True(t, ok)

	code := &domain.GemCode{
		Code:          full,
		Slug:          slug,
		GemstoneNames: names,
		GemstonePart:  c.GemstonePart,
		Year:          year,
		Month:         month,
		PieceNumber:   piece,
		Checksum:      c.Checksum,
	}
	require.NoError(t, repo.Create(ctx, code))
	return code
}

func TestNextSequenceStartsAtOneAndIncrements(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	key := domain.GroupKeyFor([]string{"Amethyst"})

	for want := 1; want <= 3; want++ {
		got, err := repo.NextSequence(ctx, key, 2025, 9)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNextSequenceIsScopedToGroupAndMonth(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	issue(t, repo, []string{"Amethyst"}, 2025, 9, "slug000001")
	issue(t, repo, []string{"Amethyst"}, 2025, 9, "slug000002")

	// other month
	n, err := repo.NextSequence(ctx, domain.GroupKeyFor([]string{"Amethyst"}), 2025, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// other group, same abbreviation
	n, err = repo.NextSequence(ctx, domain.GroupKeyFor([]string{"amethyst"}), 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// same names, different order
	n, err = repo.NextSequence(ctx, domain.GroupKeyFor([]string{"Ruby", "Amethyst"}), 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.NextSequence(ctx, domain.GroupKeyFor([]string{"Amethyst", "Ruby"}), 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.NextSequence(ctx, domain.GroupKeyFor([]string{"Amethyst"}), 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNextSequenceReseedsFromStoredCodes(t *testing.T) {
	db := testutil.DB(t)
	repo := NewGormCodeRepository(db)
	ctx := context.Background()
	names := []string{"Ruby"}

	// imported without touching the counter
	require.NoError(t, repo.Create(ctx, &domain.GemCode{
		Code:          codec.Generate(names, 12, 2024, 41),
		Slug:          "imported01",
		GemstoneNames: names,
		GemstonePart:  "RUB",
		Year:          2024,
		Month:         12,
		PieceNumber:   41,
		Checksum:      codec.ComputeChecksum("Ruby", 12, 2024, 41),
	}))

	n, err := repo.NextSequence(ctx, domain.GroupKeyFor(names), 2024, 12)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = repo.NextSequence(ctx, domain.GroupKeyFor(names), 2024, 12)
	require.NoError(t, err)
	assert.Equal(t, 43, n)
}

func TestNextSequenceConcurrentCallersGetDistinctValues(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	key := domain.GroupKeyFor([]string{"Opal"})

	const workers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.NextSequence(ctx, key, 2026, 1)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created := issue(t, repo, []string{"Amethyst"}, 2025, 9, "abcdefghjk")
	assert.Equal(t, "GM-2509-AME-001-ADT2", created.Code)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByCode(ctx, "GM-2509-AME-001-ADT2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amethyst"}, got.GemstoneNames)
	assert.Equal(t, 1, got.PieceNumber)
	assert.Equal(t, "ADT2", got.Checksum)

	bySlug, err := repo.GetBySlug(ctx, "abcdefghjk")
	require.NoError(t, err)
	assert.Equal(t, got.ID, bySlug.ID)

	_, err = repo.GetByCode(ctx, "GM-2509-AME-002-ADUR")
	assert.ErrorIs(t, err, ErrCodeNotFound)
	_, err = repo.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCreateDuplicates(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := issue(t, repo, []string{"Amethyst"}, 2025, 9, "slugAAAAAA")

	dupCode := *first
	dupCode.ID = ""
	dupCode.Slug = "slugBBBBBB"
	assert.ErrorIs(t, repo.Create(ctx, &dupCode), ErrDuplicateCode)

	dupSlug := *first
	dupSlug.ID = ""
	dupSlug.Code = "GM-2509-AME-002-ADUR"
	dupSlug.PieceNumber = 2
	assert.ErrorIs(t, repo.Create(ctx, &dupSlug), ErrDuplicateSlug)
}

func TestListFiltersAndPaginates(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	issue(t, repo, []string{"Amethyst"}, 2025, 9, "s000000001")
	issue(t, repo, []string{"Amethyst"}, 2025, 9, "s000000002")
	issue(t, repo, []string{"Ruby"}, 2025, 9, "s000000003")
	issue(t, repo, []string{"Amethyst", "Ruby"}, 2025, 10, "s000000004")

	all, total, err := repo.List(ctx, domain.CodeFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)

	page, total, err := repo.List(ctx, domain.CodeFilter{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 1)

	sept, total, err := repo.List(ctx, domain.CodeFilter{Year: 2025, Month: 9}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, sept, 3)

	ame, total, err := repo.List(ctx, domain.CodeFilter{GemstonePart: "ame"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, c := range ame {
		assert.Equal(t, "AME", c.GemstonePart)
	}

	mix, _, err := repo.List(ctx, domain.CodeFilter{GemstonePart: codec.MixPart}, 1, 10)
	require.NoError(t, err)
	require.Len(t, mix, 1)
	assert.Equal(t, "GM-2510-MIX-001-AH6L", mix[0].Code)
}

func TestListByPeriodOrdersByGroupAndPiece(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	issue(t, repo, []string{"Ruby"}, 2025, 9, "p000000001")
	issue(t, repo, []string{"Amethyst"}, 2025, 9, "p000000002")
	issue(t, repo, []string{"Amethyst"}, 2025, 9, "p000000003")
	issue(t, repo, []string{"Amethyst"}, 2025, 8, "p000000004")

	codes, err := repo.ListByPeriod(ctx, 2025, 9)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.Equal(t, "GM-2509-AME-001-ADT2", codes[0].Code)
	assert.Equal(t, "GM-2509-AME-002-ADUR", codes[1].Code)
	assert.Equal(t, "RUB", codes[2].GemstonePart)
}

func TestDeleteIsSoftAndNeverReissues(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	c := issue(t, repo, []string{"Amethyst"}, 2025, 9, "d000000001")

	require.NoError(t, repo.Delete(ctx, c.Code))
	_, err := repo.GetByCode(ctx, c.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.Code), ErrCodeNotFound)

	n, err := repo.NextSequence(ctx, domain.GroupKeyFor([]string{"Amethyst"}), 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNextSequenceLogsGroupKeyOnce(t *testing.T) {
	repo := newRepo(t)

	var buf bytes.Buffer
	groupKey := domain.GroupKeyFor([]string{"Opal"})
	ctx := log.WithLogger(context.Background(), log.NewWithWriter(log.Config{Level: "debug"}, &buf))
	ctx = log.WithStr(ctx, log.FieldGroupKey, groupKey)

	_, err := repo.NextSequence(ctx, groupKey, 2025, 4)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"group_key"`), line)
	}
}
