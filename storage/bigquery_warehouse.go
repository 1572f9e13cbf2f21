package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"naver-trends/models"
)

// insertIDNamespace scopes the deterministic streaming insert ids.
var insertIDNamespace = uuid.MustParse("6f1c2a4e-2d7b-4f44-9a53-0e8f3b7d9c11")

// bqTableSchema is the fixed destination schema.
var bqTableSchema = bigquery.Schema{
	{Name: "corporate_id", Type: bigquery.StringFieldType},
	{Name: "brand_id", Type: bigquery.StringFieldType},
	{Name: "date", Type: bigquery.StringFieldType},
	{Name: "keyword", Type: bigquery.StringFieldType},
	{Name: "keyword_type", Type: bigquery.StringFieldType},
	{Name: "category_1", Type: bigquery.StringFieldType},
	{Name: "category_2", Type: bigquery.StringFieldType},
	{Name: "category_3", Type: bigquery.StringFieldType},
	{Name: "category_4", Type: bigquery.StringFieldType},
	{Name: "category_5", Type: bigquery.StringFieldType},
	{Name: "device_type", Type: bigquery.StringFieldType},
	{Name: "queries", Type: bigquery.IntegerFieldType},
}

// BigQueryWarehouse stores each client's rows in project.<client>.<table>.
type BigQueryWarehouse struct {
	client    *bigquery.Client
	project   string
	tableName string
	batchSize int
}

// NewBigQueryWarehouse creates a client authenticated with the service
// account key at credentialsFile.
func NewBigQueryWarehouse(ctx context.Context, project, credentialsFile, tableName string) (*BigQueryWarehouse, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: new client: %w", err)
	}

	return &BigQueryWarehouse{
		client:    client,
		project:   project,
		tableName: tableName,
		batchSize: 500,
	}, nil
}

func (bw *BigQueryWarehouse) Ref(dataset string) TableRef {
	return TableRef{Project: bw.project, Dataset: dataset, Table: bw.tableName}
}

func (bw *BigQueryWarehouse) table(ref TableRef) *bigquery.Table {
	return bw.client.DatasetInProject(ref.Project, ref.Dataset).Table(ref.Table)
}

func (bw *BigQueryWarehouse) LookupTable(ctx context.Context, ref TableRef) (TableStatus, error) {
	if _, err := bw.table(ref).Metadata(ctx); err != nil {
		if isNotFound(err) {
			return TableNotFound, nil
		}
		return TableNotFound, fmt.Errorf("bigquery: lookup %s: %w", ref.ID(), err)
	}
	return TableFound, nil
}

func (bw *BigQueryWarehouse) CreateTable(ctx context.Context, ref TableRef) error {
	if err := bw.table(ref).Create(ctx, &bigquery.TableMetadata{Schema: bqTableSchema}); err != nil {
		return fmt.Errorf("bigquery: create %s: %w", ref.ID(), err)
	}
	return nil
}

type latestDateRow struct {
	DeviceType string `bigquery:"device_type"`
	Keyword    string `bigquery:"keyword"`
	LatestDate string `bigquery:"latest_date"`
}

func latestDatesSQL(ref TableRef) string {
	return fmt.Sprintf("SELECT device_type, keyword, MAX(date) AS latest_date FROM `%s` GROUP BY device_type, keyword", ref.ID())
}

func (bw *BigQueryWarehouse) LatestDates(ctx context.Context, ref TableRef) (models.LatestDates, error) {
	it, err := bw.client.Query(latestDatesSQL(ref)).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: latest dates %s: %w", ref.ID(), err)
	}

	latest := models.LatestDates{}
	for {
		var row latestDateRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery: read latest dates: %w", err)
		}
		latest.Set(models.DeviceType(row.DeviceType), row.Keyword, row.LatestDate)
	}
	return latest, nil
}

// InsertRows streams rows in pages of batchSize. Every row carries an
// insert id derived from its (dataset, keyword, device, date) key, so a
// repeated page is de-duplicated by BigQuery on a best-effort basis.
func (bw *BigQueryWarehouse) InsertRows(ctx context.Context, ref TableRef, rows []*models.Row) error {
	inserter := bw.table(ref).Inserter()

	for i := 0; i < len(rows); i += bw.batchSize {
		end := i + bw.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		savers := make([]*bigquery.StructSaver, 0, end-i)
		for _, r := range rows[i:end] {
			savers = append(savers, &bigquery.StructSaver{
				Struct:   r,
				Schema:   bqTableSchema,
				InsertID: insertID(ref, r),
			})
		}

		if err := inserter.Put(ctx, savers); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("bigquery: insert %s: %w", ref.ID(), ErrTableNotFound)
			}
			return fmt.Errorf("bigquery: insert %s: %w", ref.ID(), err)
		}
	}
	return nil
}

// insertID is stable for a given table and (keyword, device, date) triple.
func insertID(ref TableRef, r *models.Row) string {
	key := ref.ID() + "|" + r.Keyword + "|" + string(r.DeviceType) + "|" + r.Date
	return uuid.NewSHA1(insertIDNamespace, []byte(key)).String()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func (bw *BigQueryWarehouse) Close() error {
	return bw.client.Close()
}
