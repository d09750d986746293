package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-insights-go/internal/blob"
	"ops-insights-go/internal/classifier"
	"ops-insights-go/internal/lock"
	"ops-insights-go/internal/service"
	"ops-insights-go/internal/snapshot"
)

const testToken = "secret-token"

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := snapshot.NewRepo(blob.NewMemStore())
	complaints := service.NewComplaintService(repo, lock.NewMemoryLocker(time.Second), time.Minute)
	chats := service.NewChatService(repo, classifier.New(classifier.Config{UseMock: true}))
	metrics := service.NewMetricsService(repo)
	return NewRouter(NewHandler(complaints, chats, metrics, repo), testToken)
}

func do(r *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealthzOpen(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/complaints/latest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)

	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestComplaintsJSON(t *testing.T) {
	r := newTestRouter()
	body := bytes.NewBufferString(`{
		"date": "2026-06-01",
		"records": [
			{"conversationId":"X1","contractId":"C1","complaintType":"oec","date":"2026-01-01"},
			{"conversationId":"X2","contractId":"C1","complaintType":"oec","date":"2026-06-01"}
		]
	}`)
	w := do(r, http.MethodPost, "/api/v1/complaints/ingest", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.True(t, env.Success)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(2), data["totalSales"])

	// The snapshot is now readable.
	w = do(r, http.MethodGet, "/api/v1/complaints/latest", nil, "")
	env = decode(t, w)
	require.True(t, env.Success)
	assert.NotNil(t, env.Data)

	w = do(r, http.MethodGet, "/api/v1/complaints/2026-06-01", nil, "")
	env = decode(t, w)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
}

func TestIngestComplaintsCSVUpload(t *testing.T) {
	r := newTestRouter()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("date", "2026-06-01"))
	fw, err := mw.CreateFormFile("file", "complaints.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("conversation_id,contract_id,complaint_type,date\nX1,C1,oec,2026-01-01\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := do(r, http.MethodPost, "/api/v1/complaints/ingest", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.True(t, env.Success)
}

func TestIngestComplaintsBadDate(t *testing.T) {
	r := newTestRouter()
	body := bytes.NewBufferString(`{"date":"01/06/2026","records":[]}`)
	w := do(r, http.MethodPost, "/api/v1/complaints/ingest", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestIngestComplaintsEmptyRecords(t *testing.T) {
	r := newTestRouter()
	body := bytes.NewBufferString(`{"date":"2026-06-01","records":[]}`)
	w := do(r, http.MethodPost, "/api/v1/complaints/ingest", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "empty record array", env.Error)
}

func TestSnapshotAbsentIsNullData(t *testing.T) {
	r := newTestRouter()
	w := do(r, http.MethodGet, "/api/v1/chats/latest", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Nil(t, env.Data)
}

func TestAnalyzeChats(t *testing.T) {
	r := newTestRouter()
	body := bytes.NewBufferString(`{
		"date": "2026-08-02",
		"records": [
			{"conversationId":"A1","frustrated":true,"issueTags":["late reply"]},
			{"conversationId":"A2"}
		]
	}`)
	w := do(r, http.MethodPost, "/api/v1/chats/analyze", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.True(t, env.Success)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(50), data["frustratedPct"])
}

func TestIngestNPS(t *testing.T) {
	r := newTestRouter()
	body := bytes.NewBufferString(`{"date":"2026-08-01","scores":[10,10,0]}`)
	w := do(r, http.MethodPost, "/api/v1/nps/ingest", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.True(t, env.Success)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(33), data["score"])

	// Missing scores field fails binding.
	body = bytes.NewBufferString(`{"date":"2026-08-01"}`)
	w = do(r, http.MethodPost, "/api/v1/nps/ingest", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearBlobs(t *testing.T) {
	r := newTestRouter()
	body := bytes.NewBufferString(`{"date":"2026-08-01","scores":[9]}`)
	w := do(r, http.MethodPost, "/api/v1/nps/ingest", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/admin/blobs?prefix=nps/", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.True(t, env.Success)
	assert.Equal(t, float64(2), env.Data.(map[string]any)["deleted"]) // dated + latest

	w = do(r, http.MethodGet, "/api/v1/nps/latest", nil, "")
	env = decode(t, w)
	assert.Nil(t, env.Data)

	w = do(r, http.MethodDelete, "/api/v1/admin/blobs", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestDelaysMissingFile(t *testing.T) {
	r := newTestRouter()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("date", "2026-08-01"))
	require.NoError(t, mw.Close())

	w := do(r, http.MethodPost, "/api/v1/delays/ingest", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "missing file upload", env.Error)
}
