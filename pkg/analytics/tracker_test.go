package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestViewURL(t *testing.T) {
	cases := map[string]string{
		"":                              "http://localhost:5000/api/view",
		"http://localhost:5000":         "http://localhost:5000/api/view",
		"https://stats.example.in/":     "https://stats.example.in/api/view",
		"https://stats.example.in/api":  "https://stats.example.in/api/view",
		"https://stats.example.in/api/": "https://stats.example.in/api/view",
	}
	for in, want := range cases {
		if got := ViewURL(in); got != want {
			t.Fatalf("ViewURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrackPostsPageView(t *testing.T) {
	var got PageView
	var gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr := NewTracker(Config{Enabled: true, Endpoint: srv.URL + "/api/", UserAgent: "capscope-test"},
		StaticIdentity{Visitor: "v_1", Session: "s_1"})

	if !tr.Track(context.Background(), "/intake", "https://example.com/") {
		t.Fatal("expected page view to be accepted")
	}

	if gotPath != "/api/view" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotType != "application/json" {
		t.Fatalf("unexpected content type %q", gotType)
	}
	want := PageView{Page: "/intake", VisitorID: "v_1", SessionID: "s_1", Referrer: "https://example.com/", UserAgent: "capscope-test"}
	if got != want {
		t.Fatalf("unexpected payload.\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestTrackSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	tr := NewTracker(Config{Enabled: true, Endpoint: srv.URL}, nil)
	if tr.Track(context.Background(), "/", "") {
		t.Fatal("expected rejected page view to report false")
	}

	unreachable := NewTracker(Config{Enabled: true, Endpoint: "http://127.0.0.1:1"}, nil)
	unreachable.client.RetryMax = 0
	if unreachable.Track(context.Background(), "/", "") {
		t.Fatal("expected unreachable endpoint to report false")
	}
}

func TestDisabledTrackerIsNoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	if NewTracker(Config{Endpoint: srv.URL}, nil).Track(context.Background(), "/", "") {
		t.Fatal("disabled tracker reported success")
	}
	var nilTracker *Tracker
	nilTracker.TrackAsync("/", "")
	if nilTracker.Track(context.Background(), "/", "") {
		t.Fatal("nil tracker reported success")
	}
	if called {
		t.Fatal("disabled tracker contacted the endpoint")
	}
}

func TestFileIdentityPersistsVisitor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "visitor-id")

	first := NewFileIdentity(path)
	v := first.VisitorID()
	if !strings.HasPrefix(v, "v_") || len(v) != 34 {
		t.Fatalf("unexpected visitor id %q", v)
	}
	if first.VisitorID() != v {
		t.Fatal("visitor id changed within one process")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("visitor id not persisted: %v", err)
	}
	if strings.TrimSpace(string(data)) != v {
		t.Fatalf("persisted id %q, want %q", data, v)
	}

	second := NewFileIdentity(path)
	if second.VisitorID() != v {
		t.Fatal("visitor id not reused across instances")
	}
	if first.SessionID() == second.SessionID() {
		t.Fatal("expected a fresh session id per instance")
	}
	if !strings.HasPrefix(second.SessionID(), "s_") {
		t.Fatalf("unexpected session id %q", second.SessionID())
	}
}
