package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/database"
)

// GemCodeModel is the GORM model for the gem_codes table.
type GemCodeModel struct {
	ID            string               `gorm:"type:varchar(36);primaryKey"`
	Code          string               `gorm:"type:varchar(32);uniqueIndex;not null"`
	Slug          string               `gorm:"type:varchar(64);uniqueIndex;not null"`
	GemstoneNames database.StringArray `gorm:"type:text;not null"`
	GroupKey      string               `gorm:"type:varchar(512);index:idx_gem_codes_group_period,priority:1;not null"`
	GemstonePart  string               `gorm:"type:varchar(3);index;not null"`
	Year          int                  `gorm:"index:idx_gem_codes_group_period,priority:2;index:idx_gem_codes_period,priority:1;not null"`
	Month         int                  `gorm:"index:idx_gem_codes_group_period,priority:3;index:idx_gem_codes_period,priority:2;not null"`
	PieceNumber   int                  `gorm:"not null"`
	Checksum      string               `gorm:"type:varchar(4);not null"`
	Description   string               `gorm:"type:text"`
	CreatedAt     time.Time            `gorm:"autoCreateTime"`
	DeletedAt     gorm.DeletedAt       `gorm:"index"`
}

// TableName specifies the table name for GemCodeModel.
func (GemCodeModel) TableName() string {
	return "gem_codes"
}

// SequenceModel tracks the last issued piece number per gemstone group and month.
type SequenceModel struct {
	GroupKey  string    `gorm:"type:varchar(512);primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	Month     int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for SequenceModel.
func (SequenceModel) TableName() string {
	return "gem_code_sequences"
}

// Models lists every model to auto-migrate.
func Models() []interface{} {
	return []interface{}{&GemCodeModel{}, &SequenceModel{}}
}

// GroupKeyFor serializes gemstone names, in input order, as a JSON array.
// ["Amethyst","Ruby"] and ["Ruby","Amethyst"] are different groups.
func GroupKeyFor(names []string) string {
	key, err := database.StringArray(names).JSON()
	if err != nil {
		// []string always marshals
		panic(err)
	}
	return key
}

// ToDomain converts GemCodeModel to domain GemCode.
func (m *GemCodeModel) ToDomain() *GemCode {
	return &GemCode{
		ID:            m.ID,
		Code:          m.Code,
		Slug:          m.Slug,
		GemstoneNames: []string(m.GemstoneNames),
		GemstonePart:  m.GemstonePart,
		Year:          m.Year,
		Month:         m.Month,
		PieceNumber:   m.PieceNumber,
		Checksum:      m.Checksum,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}

// GemCodeToModel converts domain GemCode to GemCodeModel.
func GemCodeToModel(g *GemCode) *GemCodeModel {
	return &GemCodeModel{
		ID:            g.ID,
		Code:          g.Code,
		Slug:          g.Slug,
		GemstoneNames: database.StringArray(g.GemstoneNames),
		GroupKey:      GroupKeyFor(g.GemstoneNames),
		GemstonePart:  g.GemstonePart,
		Year:          g.Year,
		Month:         g.Month,
		PieceNumber:   g.PieceNumber,
		Checksum:      g.Checksum,
		Description:   g.Description,
		CreatedAt:     g.CreatedAt,
	}
}
