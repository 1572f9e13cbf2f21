package services

import (
	"context"
	"errors"
	"fmt"

	"naver-trends/config"
	"naver-trends/metrics"
	"naver-trends/models"
	"naver-trends/storage"
	"naver-trends/utils"
)

// ClientSource lists clients and reads their keyword sheets.
type ClientSource interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	ReadKeywordRows(ctx context.Context, id string) ([]*models.RawKeywordRow, error)
}

// Analyzer returns per-device daily counts newer than latest for keywords.
type Analyzer interface {
	Analyze(ctx context.Context, keywords []string, latest models.LatestDates) (map[string]*models.KeywordTrend, error)
}

// Syncer runs the sync for every client, one client at a time.
type Syncer struct {
	cfg        *config.Config
	logger     *utils.Logger
	source     ClientSource
	analyzer   Analyzer
	cleaner    *Cleaner
	reconciler *Reconciler
	loader     *Loader
	audit      storage.RowWriter
	metrics    *metrics.Recorder
}

// NewSyncer wires the per-client pipeline. audit and rec may be nil.
func NewSyncer(cfg *config.Config, logger *utils.Logger, source ClientSource, analyzer Analyzer,
	warehouse storage.Warehouse, audit storage.RowWriter, rec *metrics.Recorder) *Syncer {
	return &Syncer{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		analyzer:   analyzer,
		cleaner:    NewCleaner(logger),
		reconciler: NewReconciler(warehouse, logger),
		loader:     NewLoader(warehouse, cfg.InsertMaxRetries, cfg.InsertRetryDelay, logger, rec),
		audit:      audit,
		metrics:    rec,
	}
}

// Run syncs every client and returns the run summary. A client failure is
// recorded and the run moves on; ErrTableNotVisible stops the run and is
// returned together with the summary so far.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	summary := NewSummary()

	clients, err := s.source.ListClients(ctx)
	if err != nil {
		summary.Fail(fmt.Sprintf("Client list unavailable: %v", err))
		return summary, fmt.Errorf("list clients: %w", err)
	}
	s.logger.Info("[sync] %d clients to process", len(clients))

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Add("Analyzing keywords for client : %s", client.Name)
		result, err := s.syncClient(ctx, client, summary)

		if errors.Is(err, ErrTableNotVisible) {
			s.logger.Error("[sync] %s: %v", client.Name, err)
			s.metrics.ClientResult(OutcomeFailed)
			summary.Fail(fmt.Sprintf("%q BigQuery table not found", client.Name))
			return summary, err
		}
		if err != nil {
			s.logger.Error("[sync] %s failed: %v", client.Name, err)
			result.Outcome = OutcomeFailed
			result.Err = err
		}

		s.metrics.ClientResult(result.Outcome)
		summary.Record(result)
	}

	return summary, nil
}

func (s *Syncer) syncClient(ctx context.Context, client models.Client, summary *Summary) (ClientResult, error) {
	result := ClientResult{Client: client.Name}

	raw, err := s.source.ReadKeywordRows(ctx, client.ID)
	if err != nil {
		return result, fmt.Errorf("read keyword sheet: %w", err)
	}
	records := s.cleaner.Clean(raw)

	plan, err := s.reconciler.Reconcile(ctx, client)
	if err != nil {
		return result, err
	}
	result.Mode = plan.Mode
	if plan.Created {
		summary.Add("New table created : %s", plan.Table.ID())
	}

	rows, err := s.collectRows(ctx, records, plan.Latest)
	if err != nil {
		return result, err
	}
	if len(rows) == 0 {
		result.Outcome = OutcomeNoChange
		return result, nil
	}

	if err := s.loader.Load(ctx, plan, rows); err != nil {
		return result, err
	}
	result.Rows = len(rows)
	result.Outcome = OutcomeDone

	perDevice := make(map[models.DeviceType]int, len(models.Devices))
	for _, r := range rows {
		perDevice[r.DeviceType]++
	}
	for device, n := range perDevice {
		s.metrics.RowsInserted(client.Name, string(device), n)
	}

	if s.audit != nil {
		if err := s.audit.WriteRows(client.Name, rows); err != nil {
			s.logger.Warn("[sync] Row export for %s failed: %v", client.Name, err)
		}
	}
	return result, nil
}

// collectRows analyzes records chunk by chunk and accumulates their rows.
func (s *Syncer) collectRows(ctx context.Context, records []*models.KeywordRecord, latest models.LatestDates) ([]*models.Row, error) {
	size := s.cfg.ChunkSize
	if size < 1 {
		size = 1
	}

	var rows []*models.Row
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		chunk := records[i:end]

		keywords := make([]string, len(chunk))
		for j, rec := range chunk {
			keywords[j] = rec.Keyword
		}
		s.logger.Info("[sync] Analyzing %v", keywords)

		trends, err := s.analyzer.Analyze(ctx, keywords, latest)
		if err != nil {
			return nil, fmt.Errorf("analyze %v: %w", keywords, err)
		}
		for _, rec := range chunk {
			rows = append(rows, BuildRows(rec, trends[rec.Keyword])...)
		}
	}
	return rows, nil
}
