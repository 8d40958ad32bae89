package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/linkhub-go/internal/core/domain"
)

// staticToken is a TokenSource returning a fixed value.
type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name       string
		server     string
		wantPrefix string
	}{
		{"with http prefix", "http://localhost:8000", "http://localhost:8000"},
		{"with https prefix", "https://api.example.com/api/v1", "https://api.example.com/api/v1"},
		{"without prefix", "localhost:8000", "http://localhost:8000"},
		{"trailing slash", "http://localhost:8000/api/v1/", "http://localhost:8000/api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(tt.server, nil)
			if client.BaseURL() != tt.wantPrefix {
				t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), tt.wantPrefix)
			}
		})
	}
}

func TestHTTPClient_Headers(t *testing.T) {
	tests := []struct {
		name            string
		token           TokenSource
		body            any
		wantContentType string
		wantAuth        string
	}{
		{
			name:            "json body with token",
			token:           staticToken("T1"),
			body:            map[string]string{"email": "a@b.com"},
			wantContentType: "application/json",
			wantAuth:        "Bearer T1",
		},
		{
			name:            "no body without token",
			token:           staticToken(""),
			wantContentType: "application/json",
		},
		{
			name:            "nil token source",
			token:           nil,
			wantContentType: "application/json",
		},
		{
			name:  "binary form omits content type",
			token: staticToken("T1"),
			body: &Form{
				Body: strings.NewReader("\x00\x01binary"),
			},
			wantAuth: "Bearer T1",
		},
		{
			name:            "nil form sends no body",
			token:           staticToken("T1"),
			body:            (*Form)(nil),
			wantContentType: "application/json",
			wantAuth:        "Bearer T1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got http.Header
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, tt.token)
			err := client.Request(context.Background(), "/x", RequestOptions{Method: http.MethodPost, Body: tt.body}, nil)
			if err != nil {
				t.Fatalf("Request() error = %v", err)
			}

			if got.Get("Accept") != "application/json" {
				t.Errorf("Accept = %q, want application/json", got.Get("Accept"))
			}
			if v, ok := got["Content-Type"]; tt.wantContentType == "" && ok {
				t.Errorf("Content-Type should be absent, got %q", v)
			}
			if got.Get("Content-Type") != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", got.Get("Content-Type"), tt.wantContentType)
			}
			if _, ok := got["Authorization"]; tt.wantAuth == "" && ok {
				t.Errorf("Authorization should be absent, got %q", got.Get("Authorization"))
			}
			if got.Get("Authorization") != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", got.Get("Authorization"), tt.wantAuth)
			}
			if got.Get("X-Request-ID") == "" {
				t.Error("X-Request-ID should be set")
			}
		})
	}
}

func TestWithTimeout_LeavesSuppliedClientAlone(t *testing.T) {
	supplied := &http.Client{Timeout: time.Minute}

	client := NewHTTPClient("http://localhost", nil, WithHTTPClient(supplied), WithTimeout(5*time.Second))
	if supplied.Timeout != time.Minute {
		t.Errorf("supplied client Timeout = %v, want %v", supplied.Timeout, time.Minute)
	}
	if client.client == supplied {
		t.Fatal("WithTimeout() should work on a copy of the supplied client")
	}
	if client.client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.client.Timeout)
	}

	before := http.DefaultClient.Timeout
	NewHTTPClient("http://localhost", nil, WithHTTPClient(http.DefaultClient), WithTimeout(time.Second))
	if http.DefaultClient.Timeout != before {
		t.Errorf("http.DefaultClient.Timeout = %v, want %v", http.DefaultClient.Timeout, before)
	}
}

func TestHTTPClient_TokenReadAtCallTime(t *testing.T) {
	var auths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	src := &mutableToken{}
	client := NewHTTPClient(server.URL, src)

	client.Get(context.Background(), "/me", nil)
	src.value = "T2"
	client.Get(context.Background(), "/me", nil)

	if auths[0] != "" || auths[1] != "Bearer T2" {
		t.Errorf("Authorization headers = %q, want [\"\" \"Bearer T2\"]", auths)
	}
}

type mutableToken struct{ value string }

func (m *mutableToken) Token() string { return m.value }

func TestHTTPClient_CallerHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/csv" {
			t.Errorf("Accept = %q, want caller override", r.Header.Get("Accept"))
		}
		if r.Header.Get("X-Trace") != "abc" {
			t.Errorf("X-Trace = %q, want %q", r.Header.Get("X-Trace"), "abc")
		}
		if r.Header.Get("Authorization") != "Bearer real" {
			t.Errorf("Authorization = %q, caller must not override it", r.Header.Get("Authorization"))
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, staticToken("real"))
	err := client.Request(context.Background(), "/export", RequestOptions{
		Header: http.Header{
			"Accept":        {"text/csv"},
			"X-Trace":       {"abc"},
			"Authorization": {"Bearer forged"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
}

func TestHTTPClient_Post(t *testing.T) {
	type requestBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/api/v1/login" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/v1/login")
		}

		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body.Email != "a@b.com" || body.Password != "pw" {
			t.Errorf("body = %+v", body)
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"token":"T1","user":{"id":1}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/api/v1", nil)

	var result domain.AuthResult
	if err := client.Post(context.Background(), "/login", requestBody{Email: "a@b.com", Password: "pw"}, &result); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if result.Token != "T1" || result.User == nil || result.User.ID != "1" {
		t.Errorf("result = %+v", result)
	}
}

func TestHTTPClient_MultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() error = %v", err)
		}
		if r.FormValue("title") != "avatar" {
			t.Errorf("title = %q", r.FormValue("title"))
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "PNGDATA" {
			t.Errorf("file = %q", data)
		}
	}))
	defer server.Close()

	form, err := NewMultipartForm(
		map[string]string{"title": "avatar"},
		FormFile{Field: "file", Filename: "a.png", Content: strings.NewReader("PNGDATA")},
	)
	if err != nil {
		t.Fatalf("NewMultipartForm() error = %v", err)
	}
	if !strings.HasPrefix(form.ContentType, "multipart/form-data; boundary=") {
		t.Errorf("ContentType = %q", form.ContentType)
	}

	client := NewHTTPClient(server.URL, nil)
	if err := client.Post(context.Background(), "/upload", form, nil); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
}

func TestHTTPClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantParsed  bool
		wantMessage string
		wantCode    string
		wantFields  []string
	}{
		{
			name:        "validation error",
			status:      422,
			body:        `{"message":"The given data was invalid.","errors":{"email":["The email has already been taken."],"username":"taken"}}`,
			wantParsed:  true,
			wantMessage: "The given data was invalid.",
			wantFields:  []string{"email: The email has already been taken.", "username: taken"},
		},
		{
			name:        "unauthorized with code",
			status:      401,
			body:        `{"code":"token_expired","message":"Unauthenticated."}`,
			wantParsed:  true,
			wantMessage: "Unauthenticated.",
			wantCode:    "token_expired",
		},
		{
			name:        "error key instead of message",
			status:      403,
			body:        `{"error":"forbidden"}`,
			wantParsed:  true,
			wantMessage: "forbidden",
		},
		{
			name:        "unparseable body",
			status:      502,
			body:        `<html>bad gateway</html>`,
			wantMessage: "Bad Gateway",
		},
		{
			name:        "json array body",
			status:      500,
			body:        `["oops"]`,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, nil)
			err := client.Get(context.Background(), "/me", nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v (%T), want *APIError", err, err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Parsed != tt.wantParsed {
				t.Errorf("Parsed = %v, want %v", apiErr.Parsed, tt.wantParsed)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if got := apiErr.FieldErrors(); strings.Join(got, "|") != strings.Join(tt.wantFields, "|") {
				t.Errorf("FieldErrors() = %q, want %q", got, tt.wantFields)
			}
			if domain.IsDomainError(err, "") {
				t.Error("HTTP errors must not be reported as transport errors")
			}
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, nil)
	err := client.Get(context.Background(), "/me", nil)

	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failures must not look like API errors")
	}
}

func TestHTTPClient_UndecodableSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil)
	var out map[string]any
	if err := client.Get(context.Background(), "/me", &out); !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestParseResponse_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := ParseResponse(resp, &out); err != nil {
		t.Errorf("ParseResponse() on empty body error = %v", err)
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(&APIError{Status: 401}) {
		t.Error("401 should be unauthorized")
	}
	if IsUnauthorized(&APIError{Status: 500}) {
		t.Error("500 should not be unauthorized")
	}
	if IsUnauthorized(errors.New("plain")) {
		t.Error("plain error should not be unauthorized")
	}
}
