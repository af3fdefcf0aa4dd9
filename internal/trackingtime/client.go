// Package trackingtime wraps the TrackingTime v4 REST API behind normalized
// time-entry operations. The "at most one active entry per account"
// invariant is enforced by the upstream service, not here.
package trackingtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/telemetry"
)

const (
	// DefaultBaseURL is the public TrackingTime v4 API base.
	DefaultBaseURL = "https://app.trackingtime.co/api/v4"

	// DefaultTimeout bounds every upstream request. There are no retries.
	DefaultTimeout = 30 * time.Second

	// dateLayout is the timestamp format the tracking endpoints accept.
	dateLayout = "2006-01-02 15:04:05"
)

// API defines the time-tracking operations the tool dispatcher depends on.
type API interface {
	StartTracking(ctx context.Context, input StartInput) (*Entry, error)
	StopTracking(ctx context.Context) (*StopResult, error)
	GetActiveEntry(ctx context.Context) (*Entry, error)
	AddNote(ctx context.Context, entryID int64, note string) (*Entry, error)
}

// Entry is the normalized view of a TrackingTime tracked task.
type Entry struct {
	ID      int64  `json:"id"`
	Task    string `json:"task"`
	Project string `json:"project,omitempty"`
	Notes   string `json:"notes,omitempty"`
	// Start is set when tracking began; End stays empty while the entry
	// is active.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// StartInput holds the arguments for Client.StartTracking.
type StartInput struct {
	// Task is the task name, typically "<identifier> <title>" of a
	// Linear issue.
	Task string

	// Project optionally scopes the task to a TrackingTime project.
	Project string

	// Note optionally attaches an initial note to the entry.
	Note string
}

// StopResult reports the outcome of a stop request. Stopping with no active
// entry is a defined no-op, not an error.
type StopResult struct {
	Stopped bool   `json:"stopped"`
	Entry   *Entry `json:"entry,omitempty"`
}

// Config holds the settings for a Client.
type Config struct {
	// APIKey authenticates via HTTP basic auth with the fixed
	// "api-token" password, per the TrackingTime API contract.
	APIKey string

	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string

	// Metrics receives per-call counters and timings when non-nil.
	Metrics *telemetry.Collector
}

// Client is an authenticated TrackingTime client. Safe for reuse across
// sequential calls; it holds no mutable state.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *telemetry.Collector
	now        func() time.Time
}

var _ API = (*Client)(nil)

// NewClient creates a new TrackingTime client from the given config.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// envelope is the TrackingTime response wrapper around every payload.
type envelope struct {
	Response struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"response"`
	Data json.RawMessage `json:"data"`
}

// taskPayload mirrors the upstream task object fields this adapter reads.
type taskPayload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project"`
	Notes   string `json:"notes"`
	Start   string `json:"start_time"`
	End     string `json:"end_time"`
}

func (t taskPayload) toEntry() Entry {
	return Entry{
		ID:      t.ID,
		Task:    t.Name,
		Project: t.Project,
		Notes:   t.Notes,
		Start:   t.Start,
		End:     t.End,
	}
}

// call performs a single request against the given path with query params
// and returns the decoded envelope. HTTP-level failures surface as
// NetworkError/UpstreamError; envelope-level failures are left to callers,
// which may classify them (e.g. as conflicts).
func (c *Client) call(ctx context.Context, method, path string, params url.Values) (*envelope, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.IncrementCounter(telemetry.MetricTrackingTimeCalls, 1)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, errortypes.InternalError(err, "error creating request")
	}
	req.SetBasicAuth(c.apiKey, "api-token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errortypes.NetworkError(err, "error sending request to TrackingTime API")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errortypes.NetworkError(err, "error reading TrackingTime response body")
	}

	if c.metrics != nil {
		c.metrics.RecordTiming(telemetry.MetricTrackingTimeResponseTime, time.Since(start))
	}

	if resp.StatusCode >= 400 {
		return nil, errortypes.UpstreamError(
			fmt.Errorf("trackingtime API returned %d: %s", resp.StatusCode, string(respBody)),
			"TrackingTime request failed").
			WithField("status_code", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, errortypes.UpstreamError(err, "error unmarshaling TrackingTime response")
	}
	return &env, nil
}

// envelopeError converts a non-success envelope into an UpstreamError.
func envelopeError(env *envelope, message string) error {
	return errortypes.UpstreamError(
		fmt.Errorf("trackingtime reported status %d: %s", env.Response.Status, env.Response.Message),
		message).
		WithField("upstream_status", env.Response.Status)
}

// isConflict reports whether the envelope describes an already-active entry.
func isConflict(env *envelope) bool {
	if env.Response.Status == http.StatusConflict {
		return true
	}
	msg := strings.ToLower(env.Response.Message)
	return strings.Contains(msg, "already") && strings.Contains(msg, "track")
}

// timestamp formats the current local time for the tracking endpoints.
// Start and stop must use the same timezone or the upstream answers 500.
func (c *Client) timestamp() string {
	return c.now().Format(dateLayout)
}

// StartTracking starts a timer against the named task. When the upstream
// reports an entry already active the conflict is surfaced as-is; the
// active entry is never auto-stopped.
func (c *Client) StartTracking(ctx context.Context, input StartInput) (*Entry, error) {
	params := url.Values{}
	params.Set("date", c.timestamp())
	params.Set("task_name", input.Task)
	params.Set("return_task", "true")
	if input.Project != "" {
		params.Set("project_name", input.Project)
	}
	if input.Note != "" {
		params.Set("notes", input.Note)
	}

	env, err := c.call(ctx, http.MethodPost, "/tasks/track", params)
	if err != nil {
		return nil, err
	}
	if env.Response.Status >= 400 {
		if isConflict(env) {
			return nil, errortypes.ConflictError(
				errors.New(env.Response.Message),
				"an entry is already being tracked").
				WithField("task", input.Task)
		}
		return nil, envelopeError(env, "failed to start tracking")
	}

	var task taskPayload
	if err := json.Unmarshal(env.Data, &task); err != nil {
		return nil, errortypes.UpstreamError(err, "error decoding tracked task")
	}
	entry := task.toEntry()
	return &entry, nil
}

// StopTracking stops the currently active entry. When no entry is active it
// returns a no-op result rather than an error.
func (c *Client) StopTracking(ctx context.Context) (*StopResult, error) {
	active, err := c.GetActiveEntry(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &StopResult{Stopped: false}, nil
	}

	params := url.Values{}
	params.Set("date", c.timestamp())
	params.Set("task_id", strconv.FormatInt(active.ID, 10))
	params.Set("return_task", "true")

	env, err := c.call(ctx, http.MethodPost, "/tasks/stop", params)
	if err != nil {
		return nil, err
	}
	if env.Response.Status >= 400 {
		return nil, envelopeError(env, "failed to stop tracking")
	}

	var task taskPayload
	if err := json.Unmarshal(env.Data, &task); err != nil {
		return nil, errortypes.UpstreamError(err, "error decoding stopped task")
	}
	entry := task.toEntry()
	return &StopResult{Stopped: true, Entry: &entry}, nil
}

// GetActiveEntry fetches the currently tracking entry, or nil when none is
// active.
func (c *Client) GetActiveEntry(ctx context.Context) (*Entry, error) {
	params := url.Values{}
	params.Set("filter", "TRACKING")

	env, err := c.call(ctx, http.MethodGet, "/tasks", params)
	if err != nil {
		return nil, err
	}
	if env.Response.Status >= 400 {
		return nil, envelopeError(env, "failed to query active entry")
	}

	var tasks []taskPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &tasks); err != nil {
			return nil, errortypes.UpstreamError(err, "error decoding tracking tasks")
		}
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	entry := tasks[0].toEntry()
	return &entry, nil
}

// AddNote attaches a note to a tracked entry.
func (c *Client) AddNote(ctx context.Context, entryID int64, note string) (*Entry, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(entryID, 10))
	params.Set("notes", note)
	params.Set("return_event", "true")

	env, err := c.call(ctx, http.MethodPost, "/events/update", params)
	if err != nil {
		return nil, err
	}
	if env.Response.Status >= 400 {
		if env.Response.Status == http.StatusNotFound {
			return nil, errortypes.NotFoundError(
				fmt.Errorf("entry %d does not exist", entryID),
				"entry not found").
				WithField("entry_id", entryID)
		}
		return nil, envelopeError(env, "failed to add note to entry")
	}

	var task taskPayload
	if err := json.Unmarshal(env.Data, &task); err != nil {
		return nil, errortypes.UpstreamError(err, "error decoding updated entry")
	}
	entry := task.toEntry()
	return &entry, nil
}
