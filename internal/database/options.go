package database

import (
	"github.com/helixml/pagevec/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyOptions applies filters, sorts, limit and offset to a GORM session.
func ApplyOptions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	q := repository.Build(options...)
	db = applyFilters(db, q.Filters)

	for _, s := range q.Sorts {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Descending})
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db
}

// ApplyConditions applies only the filters, for COUNT queries.
func ApplyConditions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	return applyFilters(db, repository.Build(options...).Filters)
}

func applyFilters(db *gorm.DB, filters []repository.Filter) *gorm.DB {
	for _, f := range filters {
		col := clause.Column{Name: f.Column}
		switch f.Op {
		case repository.OpIn:
			db = db.Where("? IN ?", col, f.Value)
		default:
			db = db.Where("? = ?", col, f.Value)
		}
	}
	return db
}
