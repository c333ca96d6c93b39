package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type httpResult struct {
	t        *testing.T
	code     int
	recorder *httptest.ResponseRecorder
}

func (r *httpResult) requireStatus(expected int) *httpResult {
	r.t.Helper()
	require.Equal(r.t, expected, r.code, "unexpected status code: %s", r.recorder.Body.String())
	return r
}

func (r *httpResult) decode(v interface{}) {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.recorder.Body.Bytes(), v), r.recorder.Body.String())
}
