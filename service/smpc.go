package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aethm/statvec/logging"
	"github.com/aethm/statvec/statvec"
)

// SMPCClient posts encoder objects to the secure multi-party computation
// node. Calls are single-shot and best-effort: a failure is reported to the
// caller but the engine's output is still considered produced.
type SMPCClient struct {
	base   string
	client *http.Client
	log    *logging.Logger
}

// NewSMPCClient returns a client for the SMPC node at baseURL.
func NewSMPCClient(baseURL string, timeout time.Duration, log *logging.Logger) *SMPCClient {
	return &SMPCClient{
		base:   trimBase(baseURL),
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// UpdateDataset posts one encoder object to
// POST {base}/api/update-dataset/{jobId}. Success is HTTP 200.
func (c *SMPCClient) UpdateDataset(ctx context.Context, jobID string, enc statvec.EncoderObject) error {
	endpoint := fmt.Sprintf("%s/api/update-dataset/%s", c.base, jobID)
	c.log.Infof("[SMPCClient] posting encoder to SMPC at: %s", endpoint)

	body, err := json.Marshal(enc)
	if err != nil {
		return wrapError("UpdateDataset", jobID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return wrapError("UpdateDataset", jobID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return wrapError("UpdateDataset", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warnf("[SMPCClient] SMPC returned %d: %s", resp.StatusCode, msg)
		return wrapError("UpdateDataset", jobID, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode))
	}
	c.log.Infof("[SMPCClient] successfully posted encoder to SMPC")
	return nil
}
