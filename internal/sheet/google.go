package sheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	inputUserEntered = "USER_ENTERED"
	inputRaw         = "RAW"
)

// GoogleStore reads and writes a tab of a Google spreadsheet.
type GoogleStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewGoogleStore connects to the spreadsheet. Extra options are appended after
// the scope option; tests use them to point at a local endpoint.
func NewGoogleStore(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*GoogleStore, error) {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	all := append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleStore{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// ReadRows implements Store.
func (g *GoogleStore) ReadRows(ctx context.Context) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.a1("A:AA")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values: %w", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = cellString(v)
		}
		rows[i] = trimRow(cells)
	}
	return trimRows(rows), nil
}

// WriteRow implements Store.
func (g *GoogleStore) WriteRow(ctx context.Context, row int, cells []string) error {
	return g.update(ctx, row, cells, inputUserEntered)
}

// WriteHeader implements Store.
func (g *GoogleStore) WriteHeader(ctx context.Context, cells []string) error {
	return g.update(ctx, HeaderRow, cells, inputRaw)
}

// EvaluatesFormulas implements Store.
func (g *GoogleStore) EvaluatesFormulas() bool { return true }

// Close implements Store.
func (g *GoogleStore) Close() error { return nil }

func (g *GoogleStore) update(ctx context.Context, row int, cells []string, input string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	body := &sheets.ValueRange{Values: [][]interface{}{values}}

	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.a1("A"+strconv.Itoa(row)), body).
		ValueInputOption(input).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update row %d: %w", row, err)
	}
	return nil
}

// a1 qualifies a range with the tab name, quoting names that need it.
func (g *GoogleStore) a1(r string) string {
	name := g.sheetName
	if strings.ContainsAny(name, " '!:") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name + "!" + r
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
