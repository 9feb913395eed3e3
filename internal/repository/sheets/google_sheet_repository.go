package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/salesboard/internal/config"
)

var errEmptyRange = errors.New("sheet range must not be empty")

// Repository is the slice of the Sheets API the publisher needs.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	SetRow(ctx context.Context, cellRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository talks to one spreadsheet through the Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository authenticates with the service account file of
// cfg unless client options are given.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id must be provided")
	}
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsPath),
			option.WithScopes(sheetsapi.SpreadsheetsScope),
		}
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends values as a new row below sheetRange. Amounts are sent as
// typed text so Sheets parses them as numbers.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return errEmptyRange
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange), zap.Int("cells", len(values)))
	return nil
}

// SetRow overwrites the cells of cellRange with values.
func (r *GoogleSheetRepository) SetRow(ctx context.Context, cellRange string, values []interface{}) error {
	if cellRange == "" {
		return errEmptyRange
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	_, err := r.service.Spreadsheets.Values.Update(r.spreadsheetID, cellRange, payload).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update range %s: %w", cellRange, err)
	}
	return nil
}

// ReadRange returns the formatted cell values of sheetRange.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, errEmptyRange
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}
