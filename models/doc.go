// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

Field names follow the portal frontend (camelCase JSON).

# Request Types

  - CodesRequest: codes
  - GenerateCodesRequest: count, length, prefix
  - ClaimRequest: userId

# Response Types

  - ModeResponse: success, mode
  - LoadResponse: success, count, submitted, accepted, mode, codes
  - ClaimResponse: code, existing
  - StatsResponse: total, claimed, available, backendMode, cloud
  - StatusResponse: state, mode, backend, attempts, lastError, since
  - ErrorResponse: error, message

# Domain Types

  - CampaignConfig: name, description, instructions, qrCode, lastUpdated
*/
package models
