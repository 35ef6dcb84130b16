package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/constants"
	"brawl-tracker/internal/domain"
	"brawl-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	matchesSheet       = "Matches"
	matchesRange       = "Matches!A2:G"
	matchesAppendRange = "Matches!A:G"
	playersRange       = "Players!A2:A"
)

// sheetAPI is the narrow seam to the spreadsheet provider. SheetStore owns
// quota pacing and row codec on top of it.
type sheetAPI interface {
	readRange(ctx context.Context, rng string) ([][]string, error)
	appendRows(ctx context.Context, rng string, rows [][]string) error
	clearRange(ctx context.Context, rng string) error
	deleteRow(ctx context.Context, sheet string, rowIndex int64) error
}

// SheetStore implements Store and Roster over the Google Sheets API. Every
// mutating call first takes a token from a rolling-minute bucket sized to the
// provider quota; a provider 429 triggers a cooldown and the same call is
// retried.
type SheetStore struct {
	api       sheetAPI
	limiter   *rate.Limiter
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	sleep     func(time.Duration)
	cooldown  time.Duration
	batchSize int
}

func NewSheetStore(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*SheetStore, error) {
	logger.Info().Str("sheet_id", cfg.SheetID).Msg("connecting to spreadsheet store")

	svc, err := sheets.NewService(context.Background(),
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize sheets client")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return newSheetStore(&googleSheetAPI{svc: svc, spreadsheetID: cfg.SheetID}, m, logger), nil
}

func newSheetStore(api sheetAPI, m *metrics.Metrics, logger zerolog.Logger) *SheetStore {
	return &SheetStore{
		api:       api,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/constants.StoreWriteQuota), constants.StoreWriteQuota),
		logger:    logger,
		metrics:   m,
		sleep:     time.Sleep,
		cooldown:  constants.StoreQuotaCooldown,
		batchSize: constants.StoreBatchSize,
	}
}

func (s *SheetStore) ReadAll(ctx context.Context) ([]domain.MatchRecord, error) {
	rows, err := s.api.readRange(ctx, matchesRange)
	if err != nil {
		return nil, err
	}

	records := make([]domain.MatchRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			// Never fatal: one bad row must not poison a full-store read.
			s.logger.Warn().Err(err).Int("row", i+2).Msg("skipping malformed store row")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SheetStore) Append(ctx context.Context, records []domain.MatchRecord) error {
	for i := 0; i < len(records); i += s.batchSize {
		end := i + s.batchSize
		if end > len(records) {
			end = len(records)
		}

		rows := make([][]string, 0, end-i)
		for _, rec := range records[i:end] {
			rows = append(rows, encodeRow(rec))
		}
		if err := s.write(ctx, "append", func(ctx context.Context) error {
			return s.api.appendRows(ctx, matchesAppendRange, rows)
		}); err != nil {
			return err
		}
		s.logger.Debug().Int("rows", len(rows)).Msg("appended batch to store")
	}
	return nil
}

// Overwrite clears the data range and rewrites it. Callers hold the
// coordinator lock for the whole call, which is what makes it atomic from the
// reader's point of view.
func (s *SheetStore) Overwrite(ctx context.Context, records []domain.MatchRecord) error {
	if err := s.write(ctx, "clear", func(ctx context.Context) error {
		return s.api.clearRange(ctx, matchesRange)
	}); err != nil {
		return err
	}
	return s.Append(ctx, records)
}

func (s *SheetStore) DeleteAt(ctx context.Context, pos int) error {
	if pos < 0 {
		return fmt.Errorf("%w: negative row position %d", ErrUnavailable, pos)
	}
	// Data row 0 sits at grid index 1, below the header.
	return s.write(ctx, "delete", func(ctx context.Context) error {
		return s.api.deleteRow(ctx, matchesSheet, int64(pos)+1)
	})
}

func (s *SheetStore) Players(ctx context.Context) ([]domain.TrackedPlayer, error) {
	rows, err := s.api.readRange(ctx, playersRange)
	if err != nil {
		return nil, err
	}

	players := make([]domain.TrackedPlayer, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		tag := domain.CanonicalTag(row[0])
		if tag == "" {
			continue
		}
		players = append(players, domain.TrackedPlayer{Tag: tag})
	}
	return players, nil
}

// write paces one mutating provider call against the quota and absorbs
// quota-exceeded responses with a cooldown before retrying the same call.
func (s *SheetStore) write(ctx context.Context, op string, fn func(context.Context) error) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return err
		}

		s.metrics.QuotaCooldowns.Inc()
		s.logger.Warn().
			Str("op", op).
			Dur("cooldown", s.cooldown).
			Msg("store write quota exhausted, cooling down")
		s.sleep(s.cooldown)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// googleSheetAPI is the real provider binding.
type googleSheetAPI struct {
	svc           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func (g *googleSheetAPI) readRange(ctx context.Context, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, mapSheetsError(err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, len(r))
		for i, cell := range r {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *googleSheetAPI) appendRows(ctx context.Context, rng string, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return mapSheetsError(err)
}

func (g *googleSheetAPI) clearRange(ctx context.Context, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return mapSheetsError(err)
}

func (g *googleSheetAPI) deleteRow(ctx context.Context, sheet string, rowIndex int64) error {
	id, err := g.sheetID(ctx, sheet)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    id,
					Dimension:  "ROWS",
					StartIndex: rowIndex,
					EndIndex:   rowIndex + 1,
				},
			},
		}},
	}
	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return mapSheetsError(err)
}

func (g *googleSheetAPI) sheetID(ctx context.Context, sheet string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.sheetIDs[sheet]; ok {
		return id, nil
	}

	meta, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, mapSheetsError(err)
	}

	g.sheetIDs = make(map[string]int64, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			g.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}

	id, ok := g.sheetIDs[sheet]
	if !ok {
		return 0, fmt.Errorf("%w: sheet %q not found", ErrUnavailable, sheet)
	}
	return id, nil
}

func mapSheetsError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
