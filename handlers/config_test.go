// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/testutil"
)

func TestGetConfig_Unset(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	handler := NewConfigHandler(newTestDeps(env, cfg), cfg)

	w := httptest.NewRecorder()
	handler.GetConfig(w, testutil.MakeRequest("GET", "/api/config", nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if got := strings.TrimSpace(w.Body.String()); got != "null" {
		t.Errorf("Expected null body, got %q", got)
	}
}

func TestPutConfig(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	handler := NewConfigHandler(newTestDeps(env, cfg), cfg)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name: "valid config",
			body: models.CampaignConfig{
				Name:         "Spring Giveaway",
				Description:  "One code per attendee",
				Instructions: "Redeem at checkout",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing name",
			body:           models.CampaignConfig{Description: "no name"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank name",
			body:           models.CampaignConfig{Name: "   "},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.PutConfig(w, testutil.MakeRequest("PUT", "/api/config", tt.body, nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var resp models.ModeResponse
				testutil.AssertJSON(t, w, &resp)
				if !resp.Success || resp.Mode != "memory" {
					t.Errorf("Unexpected response: %+v", resp)
				}
			}
		})
	}
}

func TestPutConfig_InvalidJSON(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	handler := NewConfigHandler(newTestDeps(env, cfg), cfg)

	req := httptest.NewRequest("PUT", "/api/config", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	handler.PutConfig(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestConfig_RoundTrip(t *testing.T) {
	env := testutil.SetupMemory(t)
	cfg := testutil.GetTestConfig()
	handler := NewConfigHandler(newTestDeps(env, cfg), cfg)

	put := models.CampaignConfig{
		Name:         "Launch",
		Description:  "Beta invites",
		Instructions: "Paste the code into the app",
		QRCode:       "data:image/png;base64,AAAA",
	}
	w := httptest.NewRecorder()
	handler.PutConfig(w, testutil.MakeRequest("PUT", "/api/config", put, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	handler.GetConfig(w, testutil.MakeRequest("GET", "/api/config", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.CampaignConfig
	testutil.AssertJSON(t, w, &got)

	if got.Name != put.Name || got.Description != put.Description ||
		got.Instructions != put.Instructions || got.QRCode != put.QRCode {
		t.Errorf("Config mismatch: got %+v", got)
	}
	if got.LastUpdated == nil || got.LastUpdated.IsZero() {
		t.Error("Expected lastUpdated to be stamped")
	}
}

func TestConfig_StoredInRedis(t *testing.T) {
	env := testutil.SetupRedis(t)
	cfg := testutil.GetTestConfig()
	handler := NewConfigHandler(newTestDeps(env, cfg), cfg)

	w := httptest.NewRecorder()
	handler.PutConfig(w, testutil.MakeRequest("PUT", "/api/config", models.CampaignConfig{Name: "Durable"}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ModeResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Mode != "redis" {
		t.Errorf("Expected mode redis, got %s", resp.Mode)
	}

	raw, err := env.Redis.Get(env.Durable.Keys().Config)
	if err != nil {
		t.Fatalf("Config key missing from Redis: %v", err)
	}
	if !strings.Contains(raw, `"name":"Durable"`) {
		t.Errorf("Unexpected stored config: %s", raw)
	}
}
