// Package spreadsheet reads client keyword sheets from Google Drive.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"naver-trends/models"
)

// ErrFolderNotFound is returned when the configured Drive folder is missing.
var ErrFolderNotFound = errors.New("drive folder not found")

// GSheets lists client spreadsheets in a Drive folder and reads their first
// sheet.
type GSheets struct {
	drive   *drive.Service
	sheets  *sheets.Service
	dirName string
}

// NewGSheets authenticates both services with the service account key at
// credentialsFile.
func NewGSheets(ctx context.Context, credentialsFile, dirName string) (*GSheets, error) {
	creds := option.WithCredentialsFile(credentialsFile)

	driveSrv, err := drive.NewService(ctx, creds, option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("gsheets: drive service: %w", err)
	}
	sheetsSrv, err := sheets.NewService(ctx, creds, option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("gsheets: sheets service: %w", err)
	}

	return &GSheets{drive: driveSrv, sheets: sheetsSrv, dirName: dirName}, nil
}

// ListClients returns every file in the configured folder as a client.
func (g *GSheets) ListClients(ctx context.Context) ([]models.Client, error) {
	dirs, err := g.drive.Files.List().
		Q(fmt.Sprintf("name = '%s'", escapeQuery(g.dirName))).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gsheets: find folder %q: %w", g.dirName, err)
	}
	if len(dirs.Files) == 0 {
		return nil, fmt.Errorf("gsheets: %q: %w", g.dirName, ErrFolderNotFound)
	}

	files, err := g.drive.Files.List().
		Q(fmt.Sprintf("'%s' in parents", dirs.Files[0].Id)).
		Fields("files(id, name)").
		PageSize(1000).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gsheets: list clients: %w", err)
	}

	clients := make([]models.Client, 0, len(files.Files))
	for _, f := range files.Files {
		clients = append(clients, models.Client{ID: f.Id, Name: f.Name})
	}
	return clients, nil
}

// ReadKeywordRows reads every record of the spreadsheet's first sheet.
func (g *GSheets) ReadKeywordRows(ctx context.Context, spreadsheetID string) ([]*models.RawKeywordRow, error) {
	meta, err := g.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gsheets: open %s: %w", spreadsheetID, err)
	}
	if len(meta.Sheets) == 0 {
		return nil, nil
	}

	title := meta.Sheets[0].Properties.Title
	vr, err := g.sheets.Spreadsheets.Values.Get(spreadsheetID, quoteSheetTitle(title)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gsheets: read %s: %w", spreadsheetID, err)
	}

	return parseRecords(vr.Values), nil
}

// parseRecords maps every data row onto the header row's column names.
// Rows shorter than the header leave the remaining fields empty.
func parseRecords(values [][]interface{}) []*models.RawKeywordRow {
	if len(values) < 2 {
		return nil
	}

	index := make(map[string]int, len(values[0]))
	for i, h := range values[0] {
		index[strings.TrimSpace(fmt.Sprint(h))] = i
	}

	cell := func(row []interface{}, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) || row[i] == nil {
			return ""
		}
		return fmt.Sprint(row[i])
	}

	records := make([]*models.RawKeywordRow, 0, len(values)-1)
	for _, row := range values[1:] {
		if len(row) == 0 {
			continue
		}
		r := &models.RawKeywordRow{
			CorporateID: cell(row, "corporate_id"),
			BrandID:     cell(row, "brand_id"),
			Keyword:     cell(row, "keyword"),
			KeywordType: cell(row, "keyword_type"),
		}
		for c := range r.Categories {
			r.Categories[c] = cell(row, fmt.Sprintf("category_%d", c+1))
		}
		records = append(records, r)
	}
	return records
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `'`, `\'`)
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
