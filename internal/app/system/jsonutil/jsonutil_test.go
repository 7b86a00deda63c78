package jsonutil_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"github.com/dalemusser/noticeboard/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonutil.Write(rec, http.StatusCreated, map[string]string{"id": "x"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"id":"x"`) {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestError_TypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/announcements/x", nil)

	jsonutil.Error(rec, req, zap.NewNop(), apperr.Clone(apperr.ErrNotFound, "Announcement not found."))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Detail != "Announcement not found." || body.Code != "NOT_FOUND" {
		t.Errorf("body: got %+v", body)
	}
}

func TestError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/announcements", nil)

	jsonutil.Error(rec, req, zap.NewNop(), errors.New("secret connection string"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("internal cause leaked to client")
	}
}

func TestDecodeObject(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"title":"hi"}`, false},
		{"empty object", `{}`, false},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"malformed", `{"title":`, true},
		{"empty", ``, true},
		{"trailing value", `{} {}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			fields, err := jsonutil.DecodeObject(req)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got fields %v", fields)
				}
				if !apperr.Is(err, apperr.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fields == nil {
				t.Error("expected non-nil map")
			}
		})
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Username string `json:"username"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"username":"a","extra":1}`))
	if err := jsonutil.Decode(req, &dst); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}
