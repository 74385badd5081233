package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aethm/statvec/logging"
	"github.com/aethm/statvec/statvec"
)

// Job statuses reported by the orchestrator.
const (
	StatusWaiting     = "WAITING"
	StatusInProgress  = "IN_PROGRESS"
	StatusAggregating = "AGGREGATING"
	StatusCompleted   = "COMPLETED"
	StatusFailed      = "FAILED"
	StatusError       = "ERROR"
)

// Notifier tells the computations orchestrator that this client has
// finished updating the SMPC node.
type Notifier struct {
	base   string
	client *http.Client
	log    *logging.Logger
}

// NewNotifier returns a Notifier for the orchestrator at baseURL.
func NewNotifier(baseURL string, timeout time.Duration, log *logging.Logger) *Notifier {
	return &Notifier{
		base:   trimBase(baseURL),
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// notifyRequest is the POST {base}/api/update body.
type notifyRequest struct {
	JobID        string               `json:"jobId"`
	ClientID     string               `json:"clientId"`
	TotalClients int                  `json:"totalClients"`
	Schema       []statvec.SchemaEntry `json:"schema"`
}

// Notify posts the schema list to POST {base}/api/update. Success is
// HTTP 200.
func (n *Notifier) Notify(ctx context.Context, jobID, clientID string, totalClients int, schema []statvec.SchemaEntry) error {
	endpoint := n.base + "/api/update"
	n.log.Infof("[Notifier] notifying orchestrator at: %s", endpoint)

	body, err := json.Marshal(notifyRequest{
		JobID:        jobID,
		ClientID:     clientID,
		TotalClients: totalClients,
		Schema:       schema,
	})
	if err != nil {
		return wrapError("Notify", jobID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return wrapError("Notify", jobID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return wrapError("Notify", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wrapError("Notify", jobID, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode))
	}
	n.log.Infof("[Notifier] successfully notified orchestrator")
	return nil
}

// JobStatus is the orchestrator's answer to a status poll.
type JobStatus struct {
	Status            string         `json:"status"`
	AggregatedResults any            `json:"aggregatedResults"`
	Metadata          map[string]any `json:"metadata"`
}

// Poller checks a job's status at a fixed interval until it completes or
// the polling deadline expires, then persists a result snapshot. It runs in
// its own goroutine, separate from the request path; cancellation is
// implicit via timeout expiry only.
type Poller struct {
	base     string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	writer   *ResultWriter
	log      *logging.Logger
}

// NewPoller returns a Poller for the orchestrator at baseURL. Completed
// results are persisted through the writer.
func NewPoller(baseURL string, interval, timeout time.Duration, writer *ResultWriter, log *logging.Logger) *Poller {
	return &Poller{
		base:     trimBase(baseURL),
		interval: interval,
		timeout:  timeout,
		client:   &http.Client{Timeout: 10 * time.Second},
		writer:   writer,
		log:      log,
	}
}

// Start begins polling for the job in a background goroutine.
func (p *Poller) Start(jobID string) {
	p.log.Infof("[Poller] starting background polling for job %s (interval %s, timeout %s)",
		jobID, p.interval, p.timeout)
	go p.pollUntilComplete(jobID)
}

// pollUntilComplete polls the orchestrator until the job reaches a terminal
// status or the deadline passes. Returns true only when results were
// retrieved and persisted.
func (p *Poller) pollUntilComplete(jobID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	polls := 0
	for {
		polls++
		status, err := p.JobStatus(ctx, jobID)
		switch {
		case err != nil:
			p.log.Warnf("[Poller] poll #%d for job %s failed: %v", polls, jobID, err)
		case status.Status == StatusCompleted:
			p.log.Infof("[Poller] job %s completed, persisting results", jobID)
			if err := p.writer.WriteSnapshot(jobID, status); err != nil {
				p.log.Errorf("[Poller] failed to persist results for job %s: %v", jobID, err)
				return false
			}
			return true
		case status.Status == StatusFailed || status.Status == StatusError:
			p.log.Errorf("[Poller] job %s ended with status %s", jobID, status.Status)
			return false
		default:
			p.log.Infof("[Poller] poll #%d: job %s status = %s", polls, jobID, status.Status)
		}

		select {
		case <-ctx.Done():
			p.log.Errorf("[Poller] polling timeout for job %s after %d polls", jobID, polls)
			return false
		case <-ticker.C:
		}
	}
}

// JobStatus fetches GET {base}/api/job-status/{jobId}.
func (p *Poller) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	endpoint := fmt.Sprintf("%s/api/job-status/%s", p.base, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wrapError("JobStatus", jobID, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapError("JobStatus", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapError("JobStatus", jobID, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode))
	}
	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, wrapError("JobStatus", jobID, err)
	}
	return &status, nil
}
