package aps

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WorkItemStatus is the remote-assigned lifecycle state of a workitem.
// pending and inprogress are non-terminal; success, failed and cancelled
// are terminal and immutable once reached. The remote system reports
// failure sub-states as "failed*" suffixed variants; all of them count
// as failed here.
type WorkItemStatus string

const (
	StatusPending    WorkItemStatus = "pending"
	StatusInProgress WorkItemStatus = "inprogress"
	StatusSuccess    WorkItemStatus = "success"
	StatusFailed     WorkItemStatus = "failed"
	StatusCancelled  WorkItemStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s WorkItemStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusCancelled || strings.HasPrefix(string(s), string(StatusFailed))
}

// Negative reports whether a terminal status is a rejected/cancelled
// outcome rather than a success.
func (s WorkItemStatus) Negative() bool {
	return s == StatusCancelled || strings.HasPrefix(string(s), string(StatusFailed))
}

// WorkItem is one remote execution request against the extraction activity.
// Status changes are observed via polling, never written locally.
type WorkItem struct {
	ID        string         `json:"id"`
	Status    WorkItemStatus `json:"status"`
	ReportURL string         `json:"reportUrl,omitempty"`
}

// SubmitWorkItem submits a unit of work referencing the input signed read
// URL and output signed write URL against the prod activity alias. Returns
// immediately with a pending-or-later workitem.
func (c *Client) SubmitWorkItem(ctx context.Context, inputURL, outputURL string) (WorkItem, error) {
	body := map[string]any{
		"activityId": c.qualifiedID(c.cfg.ActivityName),
		"arguments": map[string]any{
			"inputFile": map[string]any{"url": inputURL},
			"result":    map[string]any{"verb": "put", "url": outputURL},
		},
	}

	var wi WorkItem
	status, err := c.doJSON(ctx, http.MethodPost, c.daURL("/workitems"), body, &wi)
	if err != nil {
		return WorkItem{}, fmt.Errorf("submitting workitem: %w", err)
	}
	if status >= 300 {
		return WorkItem{}, fmt.Errorf("%w: submitting workitem: status %d", ErrRequestFailed, status)
	}
	if wi.Status == "" {
		wi.Status = StatusPending
	}
	return wi, nil
}

// GetWorkItem fetches the current status of a workitem. One network round trip.
func (c *Client) GetWorkItem(ctx context.Context, id string) (WorkItem, error) {
	var wi WorkItem
	status, err := c.doJSON(ctx, http.MethodGet, c.daURL("/workitems/"+id), nil, &wi)
	if err != nil {
		return WorkItem{}, fmt.Errorf("getting workitem %s: %w", id, err)
	}
	if status >= 300 {
		return WorkItem{}, fmt.Errorf("%w: getting workitem %s: status %d", ErrRequestFailed, id, status)
	}
	if wi.ID == "" {
		wi.ID = id
	}
	return wi, nil
}

// WaitForWorkItem polls at a fixed interval until the workitem reaches a
// terminal state or timeout elapses, returning *TimeoutError in the latter
// case. The first poll happens immediately. Only this goroutine blocks;
// suspension is timer-driven, not a busy sleep. The remote job is not
// cancelled on timeout.
func (c *Client) WaitForWorkItem(ctx context.Context, id string, timeout, interval time.Duration) (WorkItem, error) {
	start := time.Now()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		wi, err := c.GetWorkItem(ctx, id)
		if err != nil {
			return WorkItem{}, err
		}
		if wi.Status.Terminal() {
			return wi, nil
		}

		select {
		case <-ctx.Done():
			return WorkItem{}, ctx.Err()
		case <-deadline.C:
			return WorkItem{}, &TimeoutError{WorkItemID: id, Elapsed: time.Since(start)}
		case <-ticker.C:
		}
	}
}
