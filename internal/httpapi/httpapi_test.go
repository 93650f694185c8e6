package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/storage"
	"github.com/loglens/loglens/internal/streaming"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "loglens.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	s := New(store, streaming.NewHub(), nil)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func createProject(t *testing.T, srv *httptest.Server) model.Project {
	t.Helper()
	body, _ := json.Marshal(createProjectRequest{Name: "demo", RootPath: "/tmp/demo"})
	resp, err := http.Post(srv.URL+"/api/projects", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/projects: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var p model.Project
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestCreateAndGetProject(t *testing.T) {
	_, srv := newTestServer(t)
	p := createProject(t, srv)
	if p.ID == "" {
		t.Fatal("expected a generated project id")
	}

	resp, err := http.Get(srv.URL + "/api/projects/" + p.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestGetProjectNotFoundReturnsEnvelope(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/projects/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env["error"] != "not_found" {
		t.Fatalf("unexpected error envelope: %+v", env)
	}
}

func uploadLogFile(t *testing.T, srv *httptest.Server, projectID, filename, content string) model.LogFile {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/projects/"+projectID+"/logfiles", &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var f model.LogFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return f
}

func TestCreateAnalysisAndList(t *testing.T) {
	_, srv := newTestServer(t)
	p := createProject(t, srv)
	f := uploadLogFile(t, srv, p.ID, "app.log", "line one\nline two\n")

	body, _ := json.Marshal(createAnalysisRequest{LogFileID: f.ID, Provider: "local", LevelFilter: "error"})
	resp, err := http.Post(srv.URL+"/api/projects/"+p.ID+"/analyses", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST analyses: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var a model.Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Status != model.AnalysisPending {
		t.Fatalf("expected pending, got %s", a.Status)
	}

	listResp, err := http.Get(srv.URL + "/api/projects/" + p.ID + "/analyses")
	if err != nil {
		t.Fatalf("GET analyses: %v", err)
	}
	defer listResp.Body.Close()
	var list []model.Analysis
	if err := json.NewDecoder(listResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(list))
	}
}

func TestUploadLogFile(t *testing.T) {
	_, srv := newTestServer(t)
	p := createProject(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "app.log")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("line one\nline two\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/logfiles", &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var f model.LogFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Size != int64(len("line one\nline two\n")) {
		t.Fatalf("unexpected size %d", f.Size)
	}
}

func TestStreamDeliversPublishedBatch(t *testing.T) {
	s, srv := newTestServer(t)
	p := createProject(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/projects/" + url.PathEscape(p.ID) + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	var sub wsMessage
	if err := conn.ReadJSON(&sub); err != nil {
		t.Fatalf("ReadJSON subscription_status: %v", err)
	}
	if sub.Type != "subscription_status" {
		t.Fatalf("expected subscription_status, got %s", sub.Type)
	}

	s.hub.Publish(model.StreamingBatch{BatchID: "b1", ProjectID: p.ID})

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON log_batch: %v", err)
	}
	if msg.Type != "log_batch" {
		t.Fatalf("expected log_batch, got %s", msg.Type)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	metricsResp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", metricsResp.StatusCode)
	}
}
