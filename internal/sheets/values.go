package sheets

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// RangeValues pairs an A1 range with the rows written into it.
type RangeValues struct {
	Range  string
	Values [][]string
}

// ValuesAPI is the subset of the spreadsheet values API the adapter uses.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error
	BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error
}

// GoogleValues implements ValuesAPI against the Google Sheets v4 API.
type GoogleValues struct {
	svc *sheetsapi.Service
}

// NewGoogleValues authenticates with a service-account key file limited to
// the spreadsheets scope.
func NewGoogleValues(ctx context.Context, credentialsFile string, timeout time.Duration) (*GoogleValues, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading service account file: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("Google 인증 클라이언트 생성 실패: %w", err)
	}

	httpClient := jwtCfg.Client(ctx)
	httpClient.Timeout = timeout

	return newGoogleValues(ctx, option.WithHTTPClient(httpClient))
}

// NewGoogleValuesWithEndpoint talks to endpoint with an unauthenticated
// client. It exists for emulators and tests.
func NewGoogleValuesWithEndpoint(ctx context.Context, endpoint string, client *http.Client) (*GoogleValues, error) {
	return newGoogleValues(ctx, option.WithEndpoint(endpoint), option.WithHTTPClient(client))
}

func newGoogleValues(ctx context.Context, opts ...option.ClientOption) (*GoogleValues, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &GoogleValues{svc: svc}, nil
}

// Get returns the cell values of rng as strings.
func (g *GoogleValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Update overwrites rng with values.
func (g *GoogleValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheetsapi.ValueRange{
		Values: toInterfaces(values),
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	return err
}

// BatchUpdate writes several ranges in one request.
func (g *GoogleValues) BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error {
	req := &sheetsapi.BatchUpdateValuesRequest{ValueInputOption: valueInputOption}
	for _, d := range data {
		req.Data = append(req.Data, &sheetsapi.ValueRange{Range: d.Range, Values: toInterfaces(d.Values)})
	}
	_, err := g.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
