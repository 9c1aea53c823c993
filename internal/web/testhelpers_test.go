package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/orcaflow/internal/config"
	"github.com/JonMunkholm/orcaflow/internal/core"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func envMap(kv map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := kv[key]
		return v, ok
	}
}

// newTestServer builds a server with millisecond pipeline steps and rate
// limiting off. mutate may adjust the config before the server is built.
func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()

	cfg, err := config.LoadFrom(envMap(map[string]string{
		"SESSION_SECRET":     testSecret,
		"RATE_LIMIT_ENABLED": "false",
	}))
	require.NoError(t, err)
	for _, fn := range mutate {
		fn(cfg)
	}

	svc, err := core.NewService(core.Options{
		Steps: []core.Step{
			core.DelayStep(core.StageSourceA, time.Millisecond),
			core.DelayStep(core.StageSourceB, time.Millisecond),
			core.DelayStep(core.StageConsolidating, time.Millisecond),
		},
		MaxConcurrentRuns: 2,
		MaxWaitTime:       100 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	s := NewServer(cfg, svc)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// browser replays the session cookie across requests like a real client.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, s *Server) *browser {
	return &browser{t: t, handler: s.Router(), cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postJSON(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Accept", "application/json")
	return b.do(req)
}

func (b *browser) upload(files ...testFile) *httptest.ResponseRecorder {
	b.t.Helper()
	body, contentType := multipartBody(b.t, files...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return b.do(req)
}

func (b *browser) state() StateResponse {
	b.t.Helper()
	rec := b.get("/api/state")
	require.Equal(b.t, http.StatusOK, rec.Code)
	var resp StateResponse
	require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (b *browser) waitStage(stage core.Stage) StateResponse {
	b.t.Helper()
	var last StateResponse
	require.Eventually(b.t, func() bool {
		last = b.state()
		return last.State.Stage == stage
	}, 5*time.Second, 5*time.Millisecond, "stage never reached %s", stage)
	return last
}

type testFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func xlsxUpload(t *testing.T, name string, rows int) testFile {
	return testFile{
		field:       "file",
		name:        name,
		contentType: core.MIMETypeXLSX,
		data:        xlsxBytes(t, sheetRows(rows)),
	}
}

func multipartBody(t *testing.T, files ...testFile) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func xlsxBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// sheetRows returns a header plus n data rows.
func sheetRows(n int) [][]any {
	rows := [][]any{{"Código", "Descrição", "Unidade", "Preço"}}
	for i := 1; i <= n; i++ {
		rows = append(rows, []any{fmt.Sprintf("C%03d", i), fmt.Sprintf("Item %d", i), "m2", i * 10})
	}
	return rows
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}
