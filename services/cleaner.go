package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"naver-trends/models"
	"naver-trends/utils"
)

// Cleaner transforms spreadsheet rows into validated KeywordRecords.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises keywords and drops rows that cannot be synced: blank
// keywords and repeats of a keyword already seen in the same sheet.
func (c *Cleaner) Clean(raw []*models.RawKeywordRow) []*models.KeywordRecord {
	seen := utils.NewStringSet()
	result := make([]*models.KeywordRecord, 0, len(raw))

	for i, r := range raw {
		keyword := NormaliseKeyword(r.Keyword)
		if keyword == "" {
			c.logger.Warn("[cleaner] Dropping row %d with empty keyword", i+2)
			continue
		}
		if !seen.Add(keyword) {
			c.logger.Debug("[cleaner] Duplicate keyword skipped: %s", keyword)
			continue
		}

		rec := &models.KeywordRecord{
			CorporateID: strings.TrimSpace(r.CorporateID),
			BrandID:     strings.TrimSpace(r.BrandID),
			Keyword:     keyword,
			KeywordType: strings.TrimSpace(r.KeywordType),
		}
		for j, cat := range r.Categories {
			rec.Categories[j] = strings.TrimSpace(cat)
		}
		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d keyword rows (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// NormaliseKeyword folds full-width forms, composes Hangul, strips every
// space and upper-cases the result, matching how Naver reports keywords.
func NormaliseKeyword(s string) string {
	s = width.Fold.String(norm.NFC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToUpper(s)
}
