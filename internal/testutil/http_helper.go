// Package testutil provides utility functions for testing HTTP handlers.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// MakeJSONRequest is a helper function for making JSON requests in tests.
// A nil body sends no payload; an empty authToken sends no Authorization header.
func MakeJSONRequest(body any, authToken string, r http.Handler, endpoint string, method string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, endpoint, reader)
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	resp := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	return rec, resp
}

// DecodeJSON unmarshals a recorder body into dst, for list responses.
func DecodeJSON(rec *httptest.ResponseRecorder, dst any) error {
	return json.Unmarshal(rec.Body.Bytes(), dst)
}
