// Package sheets implements the expense row store on top of the Google
// Sheets API. One worksheet holds the whole table: header row 1, data rows
// from 2, row position as record identity.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/kaisng/expense-tracker/internal/domain"
	"github.com/kaisng/expense-tracker/internal/store"
)

// Config holds what the store needs to reach one worksheet.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	WorksheetName   string
}

// Store is a RowStore backed by a single Google Sheets worksheet.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	worksheet     string
	sheetID       int64
	log           zerolog.Logger
}

var _ store.RowStore = (*Store)(nil)

// New connects to the spreadsheet, creates the worksheet if it is missing,
// and makes sure row 1 carries the expected headers.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	s := &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.WorksheetName,
		log:           log,
	}

	if err := s.resolveWorksheet(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureHeaders(ctx); err != nil {
		return nil, err
	}

	log.Info().
		Str("spreadsheet_id", cfg.SpreadsheetID).
		Str("worksheet", cfg.WorksheetName).
		Msg("Google Sheets store initialized")

	return s, nil
}

// resolveWorksheet looks up the numeric sheet ID for the configured
// worksheet title, creating the worksheet when it does not exist yet.
func (s *Store) resolveWorksheet(ctx context.Context) error {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: get spreadsheet: %w", err)
	}

	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.worksheet {
			s.sheetID = sh.Properties.SheetId
			return nil
		}
	}

	s.log.Info().Str("worksheet", s.worksheet).Msg("Worksheet not found, creating")
	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: s.worksheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: add worksheet: %w", err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		s.sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	return nil
}

// ensureHeaders writes the 13 expected headers into row 1 when the sheet is
// empty or the first row does not match.
func (s *Store) ensureHeaders(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeRef("A1:M1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: read header row: %w", err)
	}

	if len(resp.Values) > 0 && headerMatches(resp.Values[0]) {
		return nil
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toInterfaces(store.Headers)}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeRef("A1:M1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: write headers: %w", err)
	}
	s.log.Info().Msg("Header row written")
	return nil
}

// Append adds the expense as a new row and returns its 1-based row number.
func (s *Store) Append(ctx context.Context, e domain.Expense) (int, error) {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toInterfaces(store.EncodeRow(e))}}
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeRef("A:M"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: append row: %w", err)
	}

	if resp.Updates != nil {
		if n, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			return n, nil
		}
	}

	// The API did not tell us where the row landed; count rows instead.
	count, err := s.rowCount(ctx)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// List returns every data row in sheet order.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeRef("A2:M")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read rows: %w", err)
	}

	records := make([]store.Record, 0, len(resp.Values))
	for i, row := range resp.Values {
		rowNumber := i + 2
		e, err := store.DecodeRow(toStrings(row))
		if err != nil {
			s.log.Warn().Err(err).Int("row", rowNumber).Msg("Skipping undecodable row")
			continue
		}
		records = append(records, store.Record{Expense: e, RowNumber: rowNumber})
	}
	return records, nil
}

// Get returns the record at the given row number.
func (s *Store) Get(ctx context.Context, rowNumber int) (store.Record, error) {
	if rowNumber < 2 {
		return store.Record{}, store.ErrRowNotFound
	}
	ref := s.rangeRef(fmt.Sprintf("A%d:M%d", rowNumber, rowNumber))
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, ref).Context(ctx).Do()
	if err != nil {
		return store.Record{}, fmt.Errorf("sheets: read row %d: %w", rowNumber, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return store.Record{}, store.ErrRowNotFound
	}
	e, err := store.DecodeRow(toStrings(resp.Values[0]))
	if err != nil {
		return store.Record{}, fmt.Errorf("sheets: decode row %d: %w", rowNumber, err)
	}
	return store.Record{Expense: e, RowNumber: rowNumber}, nil
}

// Update overwrites the record at the given row number in place.
func (s *Store) Update(ctx context.Context, rowNumber int, e domain.Expense) error {
	if _, err := s.Get(ctx, rowNumber); err != nil {
		return err
	}
	ref := s.rangeRef(fmt.Sprintf("A%d:M%d", rowNumber, rowNumber))
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toInterfaces(store.EncodeRow(e))}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, ref, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: update row %d: %w", rowNumber, err)
	}
	return nil
}

// Delete removes the row. Rows below it shift up by one, so any previously
// reported row number past this one is stale after the call returns.
func (s *Store) Delete(ctx context.Context, rowNumber int) error {
	count, err := s.rowCount(ctx)
	if err != nil {
		return err
	}
	if rowNumber < 2 || rowNumber > count {
		return store.ErrRowNotFound
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    s.sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowNumber - 1), // 0-based, end exclusive
					EndIndex:   int64(rowNumber),
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: delete row %d: %w", rowNumber, err)
	}
	return nil
}

func (s *Store) rowCount(ctx context.Context) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeRef("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: count rows: %w", err)
	}
	return len(resp.Values), nil
}

func (s *Store) rangeRef(cells string) string {
	return fmt.Sprintf("%s!%s", s.worksheet, cells)
}

// rowFromRange extracts the row number from an A1-notation range like
// "expenses!A5:M5".
func rowFromRange(ref string) (int, bool) {
	if i := strings.Index(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func headerMatches(row []interface{}) bool {
	if len(row) < len(store.Headers) {
		return false
	}
	for i, h := range store.Headers {
		if fmt.Sprint(row[i]) != h {
			return false
		}
	}
	return true
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func toStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprint(c)
	}
	return out
}
