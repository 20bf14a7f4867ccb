package infrastructure

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/yourusername/appcatalog/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// fieldWeights scales term scores per field; descriptions count less
var fieldWeights = map[string]float64{
	domain.FieldID:          1.0,
	domain.FieldName:        1.0,
	domain.FieldSummary:     1.0,
	domain.FieldDescription: 0.2,
	domain.FieldKeywords:    1.0,
}

type searchDocument struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Summary     string `gorm:"type:text"`
	Description string `gorm:"type:text"`
	Keywords    string `gorm:"type:text"`
}

func (searchDocument) TableName() string { return "search_documents" }

type searchTerm struct {
	Term   string  `gorm:"primaryKey"`
	DocID  string  `gorm:"primaryKey;index"`
	Field  string  `gorm:"primaryKey"`
	Weight float64 `gorm:"not null"`
}

func (searchTerm) TableName() string { return "search_terms" }

// sqliteIndex implements domain.SearchIndex with an inverted term table
type sqliteIndex struct {
	db *gorm.DB
}

// Tokenize normalizes text (NFKC, case folded) and splits it into
// letter/digit runs.
func Tokenize(text string) []string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (i *sqliteIndex) Upsert(ctx context.Context, doc domain.SearchDocument) error {
	db := i.db.WithContext(ctx)
	if err := db.Where("doc_id = ?", doc.ID).Delete(&searchTerm{}).Error; err != nil {
		return err
	}
	row := searchDocument{
		ID:          doc.ID,
		Name:        doc.Name,
		Summary:     doc.Summary,
		Description: doc.Description,
		Keywords:    doc.Keywords,
	}
	if err := db.Save(&row).Error; err != nil {
		return err
	}

	fields := map[string]string{
		domain.FieldID:          doc.ID,
		domain.FieldName:        doc.Name,
		domain.FieldSummary:     doc.Summary,
		domain.FieldDescription: doc.Description,
		domain.FieldKeywords:    doc.Keywords,
	}
	var terms []searchTerm
	for field, text := range fields {
		freq := map[string]int{}
		for _, tok := range Tokenize(text) {
			freq[tok]++
		}
		for tok, n := range freq {
			terms = append(terms, searchTerm{
				Term:   tok,
				DocID:  doc.ID,
				Field:  field,
				Weight: fieldWeights[field] * float64(n),
			})
		}
	}
	if len(terms) == 0 {
		return nil
	}
	return db.CreateInBatches(terms, batchSize/4).Error
}

func (i *sqliteIndex) Delete(ctx context.Context, id string) error {
	db := i.db.WithContext(ctx)
	if err := db.Where("doc_id = ?", id).Delete(&searchTerm{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&searchDocument{}).Error
}

type termScore struct {
	DocID string
	Score float64
}

func (i *sqliteIndex) Query(ctx context.Context, text string, opts domain.QueryOptions) ([]string, error) {
	tokens := unique(Tokenize(text))
	if len(tokens) == 0 {
		return []string{}, nil
	}

	// every token must match; scores add up across tokens
	var scores map[string]float64
	for _, tok := range tokens {
		query := i.db.WithContext(ctx).Model(&searchTerm{}).
			Select("doc_id, SUM(weight) AS score").
			Group("doc_id")
		if opts.Prefix {
			query = query.Where("term LIKE ?", tok+"%")
		} else {
			query = query.Where("term = ?", tok)
		}
		if opts.Field != "" {
			query = query.Where("field = ?", opts.Field)
		}

		var rows []termScore
		if err := query.Scan(&rows).Error; err != nil {
			return nil, err
		}

		next := make(map[string]float64, len(rows))
		for _, r := range rows {
			if scores == nil {
				next[r.DocID] = r.Score
			} else if prev, ok := scores[r.DocID]; ok {
				next[r.DocID] = prev + r.Score
			}
		}
		scores = next
		if len(scores) == 0 {
			return []string{}, nil
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if scores[ids[a]] != scores[ids[b]] {
			return scores[ids[a]] > scores[ids[b]]
		}
		return ids[a] < ids[b]
	})
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	return ids, nil
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
