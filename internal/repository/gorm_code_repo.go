package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
)

// GormCodeRepository implements CodeRepository using GORM.
type GormCodeRepository struct {
	db *gorm.DB
}

// NewGormCodeRepository creates a new GORM-based code repository.
func NewGormCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// NextSequence bumps the per-group counter row inside a transaction. The row
// lock taken by the upsert serializes concurrent callers for the same group.
// A counter that lags behind stored codes (rows imported without it) is
// re-seeded from MAX(piece_number).
func (r *GormCodeRepository) NextSequence(ctx context.Context, groupKey string, year, month int) (int, error) {
	l := log.Ctx(ctx)

	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxStored int
		if err := tx.Unscoped().Model(&domain.GemCodeModel{}).
			Where("group_key = ? AND year = ? AND month = ?", groupKey, year, month).
			Select("COALESCE(MAX(piece_number), 0)").
			Scan(&maxStored).Error; err != nil {
			return err
		}

		seq := domain.SequenceModel{
			GroupKey:  groupKey,
			Year:      year,
			Month:     month,
			LastValue: maxStored + 1,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_key"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_value": gorm.Expr("gem_code_sequences.last_value + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&seq).Error; err != nil {
			return err
		}

		var current domain.SequenceModel
		if err := tx.Where("group_key = ? AND year = ? AND month = ?", groupKey, year, month).
			Take(&current).Error; err != nil {
			return err
		}

		if current.LastValue <= maxStored {
			current.LastValue = maxStored + 1
			if err := tx.Model(&domain.SequenceModel{}).
				Where("group_key = ? AND year = ? AND month = ?", groupKey, year, month).
				Update("last_value", current.LastValue).Error; err != nil {
				return err
			}
		}

		next = current.LastValue
		return nil
	})
	if err != nil {
		l.Error().Err(err).Msg("failed to reserve sequence")
		return 0, err
	}

	l.Debug().Int(log.FieldPieceNumber, next).Msg("sequence reserved")
	return next, nil
}

// Create persists a new code. It assigns an ID when missing.
func (r *GormCodeRepository) Create(ctx context.Context, code *domain.GemCode) error {
	l := log.Ctx(ctx)

	if code.ID == "" {
		code.ID = uuid.New().String()
	}

	model := domain.GemCodeToModel(code)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return r.classifyDuplicate(ctx, code.Slug)
		}
		l.Error().Err(err).Str(log.FieldCode, code.Code).Msg("failed to create code in db")
		return err
	}

	code.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldCode, code.Code).Msg("code created in db")
	return nil
}

// classifyDuplicate tells a slug collision apart from a code collision.
func (r *GormCodeRepository) classifyDuplicate(ctx context.Context, slug string) error {
	var n int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&domain.GemCodeModel{}).
		Where("slug = ?", slug).Count(&n).Error; err == nil && n > 0 {
		return ErrDuplicateSlug
	}
	return ErrDuplicateCode
}

// GetByCode retrieves a code record by its full code string.
func (r *GormCodeRepository) GetByCode(ctx context.Context, code string) (*domain.GemCode, error) {
	return r.getBy(ctx, "code", code)
}

// GetBySlug retrieves a code record by its public slug.
func (r *GormCodeRepository) GetBySlug(ctx context.Context, slug string) (*domain.GemCode, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *GormCodeRepository) getBy(ctx context.Context, column, value string) (*domain.GemCode, error) {
	l := log.Ctx(ctx)

	var model domain.GemCodeModel
	result := r.db.WithContext(ctx).Where(column+" = ?", value).Take(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		l.Error().Err(result.Error).Str(column, value).Msg("failed to get code")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves codes with pagination, newest first.
func (r *GormCodeRepository) List(ctx context.Context, filter domain.CodeFilter, page, pageSize int) ([]domain.GemCode, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.GemCodeModel{})
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Month != 0 {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.GemstonePart != "" {
		query = query.Where("gemstone_part = ?", strings.ToUpper(filter.GemstonePart))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count codes")
		return nil, 0, err
	}

	var models []domain.GemCodeModel
	if err := query.Order("created_at DESC").Order("code DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list codes from db")
		return nil, 0, err
	}

	return toDomainList(models), int(total), nil
}

// ListByPeriod returns every live code issued for a month, ordered by group and piece.
func (r *GormCodeRepository) ListByPeriod(ctx context.Context, year, month int) ([]domain.GemCode, error) {
	l := log.Ctx(ctx)

	var models []domain.GemCodeModel
	if err := r.db.WithContext(ctx).
		Where("year = ? AND month = ?", year, month).
		Order("group_key ASC").Order("piece_number ASC").
		Find(&models).Error; err != nil {
		l.Error().Err(err).Int("year", year).Int("month", month).Msg("failed to list codes by period")
		return nil, err
	}

	return toDomainList(models), nil
}

// Delete soft-deletes a code. Its piece number is never reissued.
func (r *GormCodeRepository) Delete(ctx context.Context, code string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Where("code = ?", code).Delete(&domain.GemCodeModel{})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldCode, code).Msg("failed to delete code in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCodeNotFound
	}
	l.Debug().Str(log.FieldCode, code).Msg("code deleted in db")
	return nil
}

func toDomainList(models []domain.GemCodeModel) []domain.GemCode {
	codes := make([]domain.GemCode, len(models))
	for i := range models {
		codes[i] = *models[i].ToDomain()
	}
	return codes
}

// isDuplicateKey matches translated and raw driver unique violations.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
