package keyword

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("srchterm"); got != "floor lamp" {
			t.Errorf("unexpected srchterm %q", got)
		}
		w.Write([]byte(`{"data":[
			{"id":101,"name":"Tripod Floor Lamp","psv_node_id":55,"psv_node_name":"Lamps"},
			{"id":"102","name":"LED Floor Lamp","psv_node_id":"55","psv_node_name":"Lamps"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Search(context.Background(), "floor lamp")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].ID != "101" || got[0].CategoryID != "55" {
		t.Fatalf("numeric ids not normalized: %+v", got[0])
	}
	if got[1].Name != "LED Floor Lamp" {
		t.Fatalf("unexpected second suggestion: %+v", got[1])
	}
}

func TestSearch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Search(context.Background(), "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Search(context.Background(), "x")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestSearch_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Search(context.Background(), "x")
	if !errors.Is(err, ErrNoSuggestions) {
		t.Fatalf("expected ErrNoSuggestions, got %v", err)
	}
}

func TestSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}
