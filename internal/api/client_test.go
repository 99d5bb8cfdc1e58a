package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/emsal/internal/model"
)

func TestSearchPostsRequestBody(t *testing.T) {
	want := SearchRequest{
		Sources: []model.Source{model.Yargitay, model.Danistay},
		Query:   "adil yargılanma",
		Filters: model.FilterSet{YargitayDaire: "1. Hukuk Dairesi", StartDate: "2024-01-01"},
		Page:    2,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/search" {
			t.Errorf("path = %s, want /api/search", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		var got SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("request body mismatch (-want +got):\n%s", diff)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"A","title":"Karar A","source":"Yargıtay"}],"total":11,"page":2,"pages":2}`))
	}))
	defer server.Close()

	page, err := NewClient(server.URL).Search(context.Background(), want)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.Total != 11 || page.Page != 2 || page.Pages != 2 || len(page.Items) != 1 {
		t.Errorf("unexpected page: %+v", page)
	}
	if page.Items[0].Source != model.Yargitay {
		t.Errorf("item source = %q", page.Items[0].Source)
	}
}

func TestSearchRawFilterKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		json.NewDecoder(r.Body).Decode(&raw)
		filters, _ := raw["filters"].(map[string]any)
		if filters["sayistayDaire"] != "Temyiz Kurulu" {
			t.Errorf("filters = %v", filters)
		}
		if _, ok := filters["startDate"]; ok {
			t.Error("unset filter keys should be omitted")
		}
		if sources, _ := raw["sources"].([]any); len(sources) != 0 {
			t.Errorf("sources = %v", raw["sources"])
		}
		w.Write([]byte(`{"items":[],"total":0,"page":1,"pages":0}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Search(context.Background(), SearchRequest{
		Query: "x", Filters: model.FilterSet{SayistayDaire: "Temyiz Kurulu"}, Page: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDocumentQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/document" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "2023/45 & 7" {
			t.Errorf("id = %q", got)
		}
		if got := r.URL.Query().Get("source"); got != "Danıştay" {
			t.Errorf("source = %q", got)
		}
		w.Write([]byte(`{"id":"2023/45 & 7","title":"T","source":"Danıştay","court":"Danıştay 2. Daire","pageContent":"Gövde"}`))
	}))
	defer server.Close()

	doc, err := NewClient(server.URL+"/").Document(context.Background(), model.Danistay, "2023/45 & 7")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if doc.Court != "Danıştay 2. Daire" || doc.PageContent != "Gövde" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestServerRejectedMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server message", http.StatusBadRequest, `{"message":"Geçersiz kaynak"}`, "Geçersiz kaynak"},
		{"empty message", http.StatusInternalServerError, `{"message":""}`, "Sunucu hatası: Internal Server Error"},
		{"no message field", http.StatusNotFound, `{}`, "Sunucu hatası: Not Found"},
		{"unreadable body", http.StatusBadGateway, `<html>bad gateway</html>`, "Sunucu yanıtı okunamadı."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Document(context.Background(), model.KVKK, "1")
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %T is not *Error", err)
			}
			if apiErr.Kind != KindServerRejected || apiErr.Status != tt.status {
				t.Errorf("kind = %v status = %d", apiErr.Kind, apiErr.Status)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestTimeoutAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(server.URL, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := c.Document(context.Background(), model.Yargitay, "slow")
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "Belge detayı isteği zaman aşımına uğradı") {
		t.Errorf("message = %q", err.Error())
	}
	if time.Since(start) > 2*time.Second {
		t.Error("request was not aborted at the deadline")
	}

	_, err = c.Search(context.Background(), SearchRequest{Query: "x", Page: 1})
	if KindOf(err) != KindTimeout || !strings.HasPrefix(err.Error(), "Arama isteği zaman aşımına uğradı") {
		t.Errorf("search timeout = %v", err)
	}
}

func TestConnectivityFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Search(context.Background(), SearchRequest{Query: "x", Page: 1})
	if KindOf(err) != KindConnectivity {
		t.Fatalf("kind = %v, err = %v", KindOf(err), err)
	}
	if !strings.HasPrefix(err.Error(), "Arama hizmetine ulaşılamadı.") {
		t.Errorf("message = %q", err.Error())
	}
	if errors.Unwrap(err) == nil {
		t.Error("connectivity error should wrap the transport cause")
	}
}

func TestMalformedSuccessBodyIsConnectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Search(context.Background(), SearchRequest{Query: "x", Page: 1})
	if KindOf(err) != KindConnectivity {
		t.Errorf("kind = %v, want connectivity", KindOf(err))
	}
}

func TestRateLimitWaitCountsAgainstTimeout(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"items":[],"total":0,"page":1,"pages":0}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRateLimit(0.01), WithTimeout(50*time.Millisecond))
	if _, err := c.Search(context.Background(), SearchRequest{Query: "x", Page: 1}); err != nil {
		t.Fatalf("first request should pass the limiter burst: %v", err)
	}
	_, err := c.Search(context.Background(), SearchRequest{Query: "x", Page: 1})
	if !IsTimeout(err) {
		t.Errorf("second request should time out waiting for the limiter, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d calls, want 1", n)
	}
}
