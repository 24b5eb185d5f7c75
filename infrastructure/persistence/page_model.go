package persistence

import (
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/internal/database"
	"gorm.io/datatypes"
)

// PageModel is the GORM model for the scraped_pages table.
type PageModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	URL       string          `gorm:"column:url;uniqueIndex:ix_scraped_pages_url;not null"`
	Title     string          `gorm:"column:title;not null"`
	Content   string          `gorm:"column:content;not null"`
	Metadata  datatypes.JSON  `gorm:"column:metadata"`
	Embedding database.Vector `gorm:"column:embedding;type:vector"`
	CreatedAt time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (PageModel) TableName() string { return PagesTable }

// pageMapper maps between page.Page and PageModel.
type pageMapper struct{}

func (pageMapper) ToDomain(m PageModel) page.Page {
	meta, err := page.ParseMetadata(m.Metadata)
	if err != nil {
		meta = page.Metadata{}
	}
	return page.ReconstructPage(
		m.ID,
		m.URL,
		m.Title,
		m.Content,
		meta,
		m.Embedding.Floats(),
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	)
}

func (pageMapper) ToModel(p page.Page) PageModel {
	raw, err := p.Metadata().JSON()
	if err != nil {
		raw = []byte("{}")
	}
	return PageModel{
		ID:        p.ID(),
		URL:       p.URL(),
		Title:     p.Title(),
		Content:   p.Content(),
		Metadata:  datatypes.JSON(raw),
		Embedding: database.NewVector(p.Embedding()),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}
