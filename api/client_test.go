package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/shape"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	base, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return NewClient(base, ts.Client())
}

func TestClientTest(t *testing.T) {
	msg := "Number of outputs and number of expected outputs disagree: 2 != 3"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/test", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req TestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "models/unet", req.Model)

		json.NewEncoder(w).Encode(resourcetest.Report{RunID: "abc", Error: &msg, Traceback: []string{}})
	})

	resp, err := c.Test(context.Background(), &TestRequest{Model: "models/unet"})
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.RunID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, msg, *resp.Error)
}

func TestClientStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"NOT_A_MODEL","error":"not a bioimageio.model: cells"}`))
	})

	_, err := c.Debug(context.Background(), &DebugRequest{Model: "cells"})
	var statusErr StatusError
	require.True(t, errors.As(err, &statusErr), "error = %v", err)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "NOT_A_MODEL", statusErr.Code)
	assert.Equal(t, "not a bioimageio.model: cells", statusErr.ErrorMessage)
}

func TestClientPlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kaputt", http.StatusInternalServerError)
	})

	_, err := c.Version(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaputt")
}

func TestTestRequestOptions(t *testing.T) {
	base := resourcetest.Options{Decimal: 4, Devices: []string{"cpu"}}

	five := 5
	opts, err := (&TestRequest{Decimal: &five, ShapeSearch: "per_axis", WeightFormat: "onnx"}).Options(base)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Decimal)
	assert.Equal(t, shape.PerAxis, opts.SearchMode)
	assert.Equal(t, "onnx", opts.WeightFormat)
	assert.Equal(t, []string{"cpu"}, opts.Devices)

	negative := -1
	_, err = (&TestRequest{Decimal: &negative}).Options(base)
	assert.Error(t, err)

	_, err = (&TestRequest{ShapeSearch: "diagonal"}).Options(base)
	assert.Error(t, err)
}
