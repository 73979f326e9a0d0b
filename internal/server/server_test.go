package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fx-window-report/internal/config"
	"github.com/ginjaninja78/fx-window-report/internal/converter"
	"github.com/ginjaninja78/fx-window-report/internal/metrics"
	"github.com/ginjaninja78/fx-window-report/internal/workbook"
)

const ratesCSV = "Hora,Precio,Monto,Moneda\n" +
	"09:15,950.5,1000,USD\n" +
	"08:00,900,1,USD\n" +
	"10:30,951.5,500,USD\n" +
	"11:00,n/a,1,USD\n"

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := config.Defaults()
	cfg.LogFile = ""
	m := metrics.New()
	g := converter.NewGenerator(cfg, nil, m)
	g.Builder.Now = func() time.Time { return time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC) }
	return New(cfg, g, m, nil), cfg
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateReportFromCSV(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "rates.csv", []byte(ratesCSV), nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, workbook.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Reporte_14.10.2026.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", rec.Header().Get(HeaderRecords))
	assert.Equal(t, "1", rec.Header().Get(HeaderIssues), "n/a price is flagged")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue(workbook.DefaultOutputSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Reporte Tipo de Cambio: 14.10.2026", title)
}

func TestCreateReportFromWorkbook(t *testing.T) {
	s, _ := newTestServer(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", workbook.DefaultSheetName))
	rows := [][]any{
		{"Hora", "Precio", "Monto", "Moneda"},
		{"08:30", 1.0, 10, "USD"},
		{"08:45", 2.0, 20, "USD"},
		{"12:00", 3.0, 30, "USD"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(workbook.DefaultSheetName, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "rates.xlsx", buf.Bytes(), map[string]string{
		"start": "08:00",
		"end":   "09:00",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get(HeaderRecords))
	assert.Equal(t, "0", rec.Header().Get(HeaderIssues))
}

func TestCreateReportErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		status   int
		contains string
	}{
		{
			name:     "missing file",
			status:   http.StatusBadRequest,
			contains: "missing form file",
		},
		{
			name:     "bad start",
			filename: "rates.csv",
			content:  ratesCSV,
			fields:   map[string]string{"start": "soon"},
			status:   http.StatusBadRequest,
			contains: "start",
		},
		{
			name:     "inverted window",
			filename: "rates.csv",
			content:  ratesCSV,
			fields:   map[string]string{"start": "13:00", "end": "09:00"},
			status:   http.StatusBadRequest,
			contains: "after end",
		},
		{
			name:     "unsupported format",
			filename: "rates.xls",
			content:  "BIFF",
			status:   http.StatusUnsupportedMediaType,
			contains: ".xls",
		},
		{
			name:     "header only",
			filename: "rates.csv",
			content:  "Hora,Precio,Monto,Moneda\n",
			status:   http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, tt.filename, []byte(tt.content), tt.fields))

			assert.Equal(t, tt.status, rec.Code)
			msg := errorBody(t, rec)
			assert.NotEmpty(t, msg)
			if tt.contains != "" {
				assert.Contains(t, msg, tt.contains)
			}
		})
	}
}

func TestCreateReportNotMultipart(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReportTooLarge(t *testing.T) {
	s, cfg := newTestServer(t)
	cfg.Server.MaxUploadMB = 1

	big := bytes.Repeat([]byte("09:00,1,1,USD\n"), (2<<20)/14)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "big.csv", big, nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	s.Handler().ServeHTTP(httptest.NewRecorder(), uploadRequest(t, "rates.csv", []byte(ratesCSV), nil))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fxreport_reports_total")
}
