package client

import (
	"context"
	"net/url"
	"strconv"
)

// ProvisioningService handles retry queue inspection and control.
type ProvisioningService struct {
	c *Client
}

// operationListResponse wraps the operation list response.
type operationListResponse struct {
	Operations []ProvisioningOperation `json:"operations"`
}

// queueDepthResponse wraps the queue depth response.
type queueDepthResponse struct {
	Depth int `json:"depth"`
}

// ListOperations returns queued operations in the given state.
func (s *ProvisioningService) ListOperations(ctx context.Context, state string, limit int) ([]ProvisioningOperation, error) {
	params := url.Values{}
	if state != "" {
		params.Set("state", state)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp operationListResponse
	if err := s.c.get(ctx, "/api/v1/provisioning/operations", params, &resp); err != nil {
		return nil, err
	}
	return resp.Operations, nil
}

// QueueDepth returns the number of pending operations.
func (s *ProvisioningService) QueueDepth(ctx context.Context) (int, error) {
	var resp queueDepthResponse
	if err := s.c.get(ctx, "/api/v1/provisioning/queue", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Depth, nil
}

// RetryBatch clears the batch backoff so the next poll picks it up.
func (s *ProvisioningService) RetryBatch(ctx context.Context, batchID string) error {
	return s.c.post(ctx, "/api/v1/provisioning/batches/"+url.PathEscape(batchID)+"/retry", nil, nil)
}

// ExecuteBatch runs one batch synchronously.
func (s *ProvisioningService) ExecuteBatch(ctx context.Context, batchID string) error {
	return s.c.post(ctx, "/api/v1/provisioning/batches/"+url.PathEscape(batchID)+"/execute", nil, nil)
}
