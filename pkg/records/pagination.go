package records

import (
	"strings"

	"gorm.io/gorm"
)

// Page selects a 1-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

type List[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// paginate counts the filtered rows, then loads one ordered page. Order and
// preloads are applied after counting.
func paginate[T any](q *gorm.DB, p Page, order string, preloads ...string) (*List[T], error) {
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.Number <= 0 {
		p.Number = 1
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	for _, pl := range preloads {
		q = q.Preload(pl)
	}
	items := make([]T, 0, p.Size)
	if err := q.Order(order).Offset((p.Number - 1) * p.Size).Limit(p.Size).Find(&items).Error; err != nil {
		return nil, err
	}
	return &List[T]{Items: items, Page: p.Number, PageSize: p.Size, Total: total}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// contains adds a case-insensitive substring match on col. Wildcards in v
// match literally.
func contains(q *gorm.DB, col, v string) *gorm.DB {
	v = strings.TrimSpace(v)
	if v == "" {
		return q
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
	return q.Where("LOWER("+col+`) LIKE ? ESCAPE '\'`, pattern)
}
