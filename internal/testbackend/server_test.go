package testbackend

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

func upload(t *testing.T, url string) SubmitResponse {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "mic.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("RIFF"))
	w.Close()

	resp, err := http.Post(url+"/match_file", w.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func status(t *testing.T, url, id string) (int, StatusResponse) {
	t.Helper()
	resp, err := http.Get(url + "/task_status/" + id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out StatusResponse
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestScriptedSequence(t *testing.T) {
	srv := New(Script{
		TaskID: "task-1",
		Steps:  []Step{Pending(), Success(model.MatchCandidate{Title: "A", Votes: 3, Confidence: 0.5})},
	})
	srv.SetLogger(model.NopLogger{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	sub := upload(t, ts.URL)
	if sub.TaskID != "task-1" || sub.Status != "pending" {
		t.Fatalf("unexpected submit response %+v", sub)
	}
	data, name := srv.LastUpload()
	if string(data) != "RIFF" || name != "mic.wav" {
		t.Errorf("upload not recorded: %q %q", data, name)
	}

	want := []string{"pending", "success", "success"}
	for i, w := range want {
		code, st := status(t, ts.URL, "task-1")
		if code != http.StatusOK || st.Status != w {
			t.Fatalf("poll %d: got %d %q, want %q", i, code, st.Status, w)
		}
	}
	if srv.Polls() != 3 || srv.Submits() != 1 {
		t.Errorf("counters: polls=%d submits=%d", srv.Polls(), srv.Submits())
	}
}

func TestUnknownTaskIs404(t *testing.T) {
	srv := New(Script{})
	srv.SetLogger(model.NopLogger{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if code, _ := status(t, ts.URL, "missing"); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestSubmitCode(t *testing.T) {
	srv := New(Script{SubmitCode: http.StatusInternalServerError})
	srv.SetLogger(model.NopLogger{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/match_file", "text/plain", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestScriptValidate(t *testing.T) {
	if err := DemoScript().Validate(); err != nil {
		t.Errorf("demo script invalid: %v", err)
	}
	if err := (Script{Steps: []Step{{Code: 42}}}).Validate(); err == nil {
		t.Error("expected invalid code to be rejected")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(Script{TaskID: "task-m", Steps: []Step{Pending(), Failure("audio too quiet")}})
	srv.SetLogger(model.NopLogger{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	upload(t, ts.URL)
	status(t, ts.URL, "task-m")
	if srv.OpenTasks() != 1 {
		t.Fatalf("expected one open task, got %d", srv.OpenTasks())
	}
	status(t, ts.URL, "task-m")
	status(t, ts.URL, "missing")
	if srv.OpenTasks() != 0 {
		t.Fatalf("expected no open task after failure, got %d", srv.OpenTasks())
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	for _, want := range []string{
		"spectra_backend_uploads_total 1",
		"spectra_backend_upload_bytes_total 4",
		`spectra_backend_status_replies_total{status="pending"} 1`,
		`spectra_backend_status_replies_total{status="fail"} 1`,
		"spectra_backend_errors_total 1",
		"spectra_backend_open_tasks 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}
