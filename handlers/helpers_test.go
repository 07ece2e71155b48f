// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/testutil"
)

func newTestDeps(env *testutil.Env, cfg cliparse.Config) Deps {
	return NewDeps(env.Selector, cfg, nil)
}

// loadCodes pushes codes through the bulk endpoint and fails the test on
// anything but 200.
func loadCodes(t *testing.T, deps Deps, cfg cliparse.Config, codes ...string) models.LoadResponse {
	t.Helper()

	h := NewCodesHandler(deps, cfg)
	w := httptest.NewRecorder()
	h.BulkLoad(w, testutil.MakeRequest("POST", "/api/codes/bulk", models.CodesRequest{Codes: codes}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to load codes: %d %s", w.Code, w.Body.String())
	}

	var resp models.LoadResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

func getStats(t *testing.T, deps Deps, cfg cliparse.Config) models.StatsResponse {
	t.Helper()

	h := NewStatsHandler(deps, cfg)
	w := httptest.NewRecorder()
	h.GetStats(w, testutil.MakeRequest("GET", "/api/stats", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.StatsResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

func postClaim(deps Deps, cfg cliparse.Config, userID string) *httptest.ResponseRecorder {
	h := NewClaimHandler(deps, cfg)
	w := httptest.NewRecorder()
	h.Claim(w, testutil.MakeRequest("POST", "/api/claim", models.ClaimRequest{UserID: userID}, nil))
	return w
}
