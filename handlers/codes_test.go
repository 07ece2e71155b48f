// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/testutil"
)

func TestBulkLoad(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.MaxBatch = 3

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "valid batch",
			body:           models.CodesRequest{Codes: []string{"A1", "A2", "A3"}},
			expectedStatus: http.StatusOK,
			expectedCount:  3,
		},
		{
			name:           "duplicates and blanks dropped",
			body:           models.CodesRequest{Codes: []string{" B1 ", "B1", "", "B2"}},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "missing codes",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "only blanks",
			body:           models.CodesRequest{Codes: []string{" ", ""}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "over batch limit",
			body:           models.CodesRequest{Codes: []string{"C1", "C2", "C3", "C4"}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.SetupMemory(t)
			handler := NewCodesHandler(newTestDeps(env, cfg), cfg)

			w := httptest.NewRecorder()
			handler.BulkLoad(w, testutil.MakeRequest("POST", "/api/codes/bulk", tt.body, nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp models.LoadResponse
			testutil.AssertJSON(t, w, &resp)
			if !resp.Success || resp.Count != tt.expectedCount || resp.Accepted != tt.expectedCount {
				t.Errorf("Unexpected response: %+v", resp)
			}
			if resp.Mode != "memory" {
				t.Errorf("Expected mode memory, got %s", resp.Mode)
			}
			if resp.Codes != nil {
				t.Errorf("Bulk load must not echo codes, got %v", resp.Codes)
			}
		})
	}
}

func TestBulkLoad_CountsOnlyNewCodes(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	deps := newTestDeps(env, cfg)

	loadCodes(t, deps, cfg, "X1", "X2")
	resp := loadCodes(t, deps, cfg, "X2", "X3")

	if resp.Count != 1 {
		t.Errorf("Expected 1 new code, got %d", resp.Count)
	}
	if resp.Submitted != 2 || resp.Accepted != 2 {
		t.Errorf("Expected submitted=2 accepted=2, got %+v", resp)
	}
	if stats := getStats(t, deps, cfg); stats.Available != 3 {
		t.Errorf("Expected 3 available, got %d", stats.Available)
	}
}

func TestBulkLoad_MaxCodes(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	cfg.MaxCodes = 3
	deps := newTestDeps(env, cfg)

	loadCodes(t, deps, cfg, "M1", "M2")

	handler := NewCodesHandler(deps, cfg)
	w := httptest.NewRecorder()
	handler.BulkLoad(w, testutil.MakeRequest("POST", "/api/codes/bulk",
		models.CodesRequest{Codes: []string{"M3", "M4"}}, nil))
	testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)

	if stats := getStats(t, deps, cfg); stats.Total != 2 {
		t.Errorf("Rejected batch must not be loaded, total = %d", stats.Total)
	}
}

func TestBulkLoad_BodyTooLarge(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	handler := NewCodesHandler(newTestDeps(env, cfg), cfg)

	body := `{"codes":["` + strings.Repeat("Z", 256) + `"]}`
	req := httptest.NewRequest("POST", "/api/codes/bulk", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	middleware.LimitBody(64, http.HandlerFunc(handler.BulkLoad)).ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestGenerate(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.MaxBatch = 50

	tests := []struct {
		name           string
		body           models.GenerateCodesRequest
		expectedStatus int
		expectedLen    int
	}{
		{"default length", models.GenerateCodesRequest{Count: 5}, http.StatusOK, 8},
		{"custom length and prefix", models.GenerateCodesRequest{Count: 3, Length: 6, Prefix: "VIP-"}, http.StatusOK, 10},
		{"zero count", models.GenerateCodesRequest{Count: 0}, http.StatusBadRequest, 0},
		{"over batch limit", models.GenerateCodesRequest{Count: 51}, http.StatusBadRequest, 0},
		{"length too short", models.GenerateCodesRequest{Count: 1, Length: 2}, http.StatusBadRequest, 0},
		{"length too long", models.GenerateCodesRequest{Count: 1, Length: 65}, http.StatusBadRequest, 0},
		{"prefix too long", models.GenerateCodesRequest{Count: 1, Prefix: strings.Repeat("P", 33)}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.SetupMemory(t)
			deps := newTestDeps(env, cfg)
			handler := NewCodesHandler(deps, cfg)

			w := httptest.NewRecorder()
			handler.Generate(w, testutil.MakeRequest("POST", "/api/codes/generate", tt.body, nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp models.LoadResponse
			testutil.AssertJSON(t, w, &resp)

			if len(resp.Codes) != tt.body.Count || resp.Count != tt.body.Count {
				t.Fatalf("Expected %d codes, got %+v", tt.body.Count, resp)
			}
			for _, code := range resp.Codes {
				if len(code) != tt.expectedLen {
					t.Errorf("Code %q has length %d, want %d", code, len(code), tt.expectedLen)
				}
				if !strings.HasPrefix(code, tt.body.Prefix) {
					t.Errorf("Code %q missing prefix %q", code, tt.body.Prefix)
				}
			}
			if stats := getStats(t, deps, cfg); stats.Available != tt.body.Count {
				t.Errorf("Expected %d available, got %d", tt.body.Count, stats.Available)
			}
		})
	}
}
