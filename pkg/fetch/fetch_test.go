package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<h1>home</h1>"))
	})
	r.Get("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<h1>about</h1>"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func TestBody(t *testing.T) {
	c := New(testHandler(), "https://example.com")

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{
			name: "root url",
			url:  "https://example.com/",
			want: "<h1>home</h1>",
		},
		{
			name: "base url without trailing slash",
			url:  "https://example.com",
			want: "<h1>home</h1>",
		},
		{
			name: "page url",
			url:  "https://example.com/about",
			want: "<h1>about</h1>",
		},
		{
			name:    "url outside base",
			url:     "https://other.example/about",
			wantErr: ErrOutsideBase,
		},
		{
			name:    "query string rejected",
			url:     "https://example.com/about?tab=1",
			wantErr: ErrQueryString,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Body(context.Background(), tc.url)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Body: %v", err)
			}
			if got != tc.want {
				t.Errorf("Body = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBodyNoBaseURL(t *testing.T) {
	c := New(testHandler(), "")
	if _, err := c.Body(context.Background(), "https://example.com/"); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("err = %v, want ErrNoBaseURL", err)
	}
}

func TestBodyStatusError(t *testing.T) {
	c := New(testHandler(), "https://example.com")

	_, err := c.Body(context.Background(), "https://example.com/boom")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d", statusErr.Code)
	}

	_, err = c.Body(context.Background(), "https://example.com/missing")
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("Code = %d", statusErr.Code)
	}
}
