// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds reads of homeserver JSON responses so a
// misbehaving server cannot exhaust memory. Streaming bodies should
// be copied incrementally instead.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response reads. A /sync response for
// a handful of rooms is a few hundred kilobytes at most.
const MaxResponseSize int64 = 32 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a bounded response body and JSON-decodes it
// into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody returns a bounded error body for diagnostics. Read errors
// are ignored since a partial body still helps.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return string(data)
}
