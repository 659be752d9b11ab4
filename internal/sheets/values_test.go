package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValuesServer(t *testing.T, handler http.HandlerFunc) *GoogleValues {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGoogleValuesWithEndpoint(context.Background(), srv.URL+"/", srv.Client())
	require.NoError(t, err)
	return g
}

func TestGoogleValuesGet(t *testing.T) {
	g := newValuesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Users!C10:E10", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Users!C10:E10","majorDimension":"ROWS","values":[["Kim",123,"Welcome"]]}`))
	})

	values, err := g.Get(context.Background(), "sheet-1", "Users!C10:E10")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Kim", "123", "Welcome"}}, values)
}

func TestGoogleValuesUpdate(t *testing.T) {
	g := newValuesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Users!A10:B10", r.URL.Path)
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))

		var body struct {
			Values [][]string `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]string{{"USER-1234", "2025. 3. 14. 오후 3:05:09"}}, body.Values)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updatedCells":2}`))
	})

	err := g.Update(context.Background(), "sheet-1", "Users!A10:B10", [][]string{{"USER-1234", "2025. 3. 14. 오후 3:05:09"}})
	require.NoError(t, err)
}

func TestGoogleValuesBatchUpdate(t *testing.T) {
	g := newValuesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/values:batchUpdate"), r.URL.Path)

		var body struct {
			ValueInputOption string `json:"valueInputOption"`
			Data             []struct {
				Range  string     `json:"range"`
				Values [][]string `json:"values"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "USER_ENTERED", body.ValueInputOption)
		require.Len(t, body.Data, 2)
		assert.Equal(t, "Personal!A4", body.Data[0].Range)
		assert.Equal(t, [][]string{{"sub-1"}}, body.Data[1].Values)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalUpdatedCells":2}`))
	})

	err := g.BatchUpdate(context.Background(), "personal-1", []RangeValues{
		{Range: "Personal!A4", Values: [][]string{{"CODE"}}},
		{Range: "Personal!B4", Values: [][]string{{"sub-1"}}},
	})
	require.NoError(t, err)
}

func TestGoogleValuesErrorsClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{
			name:   "bad range",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"Unable to parse range: Missing!A1:A","status":"INVALID_ARGUMENT"}}`,
			kind:   KindSheetNotFound,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"Forbidden","status":"PERMISSION_DENIED"}}`,
			kind:   KindPermission,
		},
		{
			name:   "unknown spreadsheet",
			status: http.StatusNotFound,
			body:   `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`,
			kind:   KindFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newValuesServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := g.Get(context.Background(), "sheet-1", "Missing!A1:A")
			require.Error(t, err)

			var se *Error
			require.True(t, errors.As(classify(err, "Missing", opDirectory), &se))
			assert.Equal(t, tt.kind, se.Kind)
		})
	}
}
