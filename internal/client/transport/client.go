// Package transport implements the HTTP/JSON leg of the sync protocol. An
// unreachable server or an unparseable body is reported as a failed response
// rather than a distinct error class; the caller treats both the same way.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

const apiPrefix = "/1.0/"

type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

func NewClient(baseURL string, logger logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("component", "transport"),
	}
}

func (c *Client) AuthSync(ctx context.Context, req *wire.AuthRequest) *wire.AuthResponse {
	resp := &wire.AuthResponse{}
	c.post(ctx, "auth/sync", req, resp)
	return resp
}

func (c *Client) GenerateCode(ctx context.Context, req *wire.AuthRequest) *wire.AuthResponse {
	resp := &wire.AuthResponse{}
	c.post(ctx, "auth/generate", req, resp)
	return resp
}

func (c *Client) UseCode(ctx context.Context, req *wire.AuthRequest) *wire.AuthResponse {
	resp := &wire.AuthResponse{}
	c.post(ctx, "auth/use", req, resp)
	return resp
}

func (c *Client) SyncCollections(ctx context.Context, req *wire.CollectionRequest) *wire.CollectionResponse {
	resp := &wire.CollectionResponse{}
	c.post(ctx, "collections/sync", req, resp)
	return resp
}

func (c *Client) SyncRecords(ctx context.Context, req *wire.RecordRequest) *wire.RecordResponse {
	resp := &wire.RecordResponse{}
	c.post(ctx, "records/sync", req, resp)
	return resp
}

// post sends one request and decodes the envelope into resp. Any transport
// or decoding problem marks resp as failed.
func (c *Client) post(ctx context.Context, path string, reqBody any, resp wire.Response) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		resp.SetFailure(wire.ApiErrorServerFailure, fmt.Sprintf("encoding request: %v", err))
		return
	}

	url := c.baseURL + apiPrefix + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		resp.SetFailure(wire.ApiErrorServerFailure, fmt.Sprintf("building request: %v", err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn(ctx, "server unreachable", "path", path, "error", err.Error())
		resp.SetFailure(wire.ApiErrorServerFailure, "server unreachable")
		return
	}
	defer httpResp.Body.Close()

	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		c.logger.Warn(ctx, "unparseable response", "path", path, "error", err.Error())
		resp.SetFailure(wire.ApiErrorServerFailure, "unparseable response")
	}
}
