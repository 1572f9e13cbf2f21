package services

import "naver-trends/models"

// BuildRows flattens one keyword's trend into warehouse rows: the desktop
// group first, then the mobile group, one row per date. A keyword with no
// new dates yields no rows.
func BuildRows(rec *models.KeywordRecord, trend *models.KeywordTrend) []*models.Row {
	var rows []*models.Row
	for _, device := range models.Devices {
		for _, point := range trend.ForDevice(device) {
			rows = append(rows, &models.Row{
				CorporateID: rec.CorporateID,
				BrandID:     rec.BrandID,
				Date:        point.Date,
				Keyword:     rec.Keyword,
				KeywordType: rec.KeywordType,
				Category1:   rec.Categories[0],
				Category2:   rec.Categories[1],
				Category3:   rec.Categories[2],
				Category4:   rec.Categories[3],
				Category5:   rec.Categories[4],
				DeviceType:  device,
				Queries:     point.Count,
			})
		}
	}
	return rows
}
