// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Request types

// CodesRequest is the body of POST /api/codes/bulk and /api/codes/upload.
type CodesRequest struct {
	Codes []string `json:"codes"`
}

type GenerateCodesRequest struct {
	Count  int    `json:"count"`
	Length int    `json:"length"`
	Prefix string `json:"prefix"`
}

type ClaimRequest struct {
	UserID string `json:"userId"`
}

// Response types

// ModeResponse acknowledges a write and names the backend that served it.
type ModeResponse struct {
	Success bool   `json:"success"`
	Mode    string `json:"mode"`
}

// LoadResponse reports a bulk load. Count is the number of codes new to
// the pool; Submitted and Accepted are before and after trimming and
// in-batch dedup.
type LoadResponse struct {
	Success   bool     `json:"success"`
	Count     int      `json:"count"`
	Submitted int      `json:"submitted"`
	Accepted  int      `json:"accepted"`
	Mode      string   `json:"mode"`
	Codes     []string `json:"codes,omitempty"`
}

type ClaimResponse struct {
	Code     string `json:"code"`
	Existing bool   `json:"existing"`
}

type StatsResponse struct {
	Total       int    `json:"total"`
	Claimed     int    `json:"claimed"`
	Available   int    `json:"available"`
	BackendMode string `json:"backendMode"`
	Cloud       bool   `json:"cloud"` // true when the durable store served the read
}

type StatusResponse struct {
	State     string    `json:"state"`
	Mode      string    `json:"mode"`
	Backend   string    `json:"backend"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	Since     time.Time `json:"since"`
}

// Domain types

// CampaignConfig is the display metadata shown on the portal. QRCode is
// an inline data URL.
type CampaignConfig struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Instructions string     `json:"instructions"`
	QRCode       string     `json:"qrCode,omitempty"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
