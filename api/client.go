// Package api - Client fuer den modeltest-Server.
// Dieses Modul enthaelt die Client-Struktur, den Transport und die API-Methoden.
//
// Package api implements the client-side API for code wishing to interact
// with a running modeltest server. The modeltest command-line client uses
// this package when tests are delegated with --remote.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"

	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/version"
)

// Client encapsulates client state for interacting with the modeltest
// server. Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	err := json.Unmarshal(body, &apiError)
	if err != nil {
		// Use the full body as the message if we fail to decode a response.
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

// ClientFromEnvironment creates a new [Client] for the address in
// BIOIMAGEIO_HOST (default 127.0.0.1:11435).
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: &url.URL{Scheme: "http", Host: envconfig.Host()},
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	requestURL := c.base.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, method, requestURL.String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("modeltest/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version()))

	respObj, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return err
	}

	if err := checkError(respObj, respBody); err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}

// Test runs a regression test on the server. A failed test is not an
// error, it is reported in the returned report.
func (c *Client) Test(ctx context.Context, req *TestRequest) (*TestResponse, error) {
	var resp TestResponse
	if err := c.do(ctx, http.MethodPost, "/api/test", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Debug runs a diagnostic pass on the server.
func (c *Client) Debug(ctx context.Context, req *DebugRequest) (*DebugResponse, error) {
	var resp DebugResponse
	if err := c.do(ctx, http.MethodPost, "/api/debug", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v VersionResponse
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// Heartbeat checks if the server has started and is responsive.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}
