// Package linear wraps the Linear GraphQL API behind a small set of
// normalized issue, team and project operations.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/telemetry"
)

const (
	// DefaultEndpoint is the public Linear GraphQL endpoint.
	DefaultEndpoint = "https://api.linear.app/graphql"

	// DefaultTimeout bounds every upstream request. There are no retries.
	DefaultTimeout = 30 * time.Second

	// pageSize caps issue list results per request.
	pageSize = 50
)

// API defines the Linear operations the tool dispatcher depends on.
type API interface {
	ListTeams(ctx context.Context) ([]Team, error)
	ListProjects(ctx context.Context, teamID string) ([]Project, error)
	CreateIssue(ctx context.Context, input CreateIssueInput) (*Issue, error)
	ListIssuesByStatus(ctx context.Context, status Status) ([]Issue, error)
	SearchIssuesByTitle(ctx context.Context, query string) ([]Issue, error)
	UpdateIssueStatus(ctx context.Context, issueID string, status Status) (*Issue, error)
}

// Config holds the settings for a Client.
type Config struct {
	// APIKey is a Linear personal API key, sent as-is in the
	// Authorization header per Linear's API key contract.
	APIKey string

	// Endpoint overrides DefaultEndpoint, mainly for tests.
	Endpoint string

	// Metrics receives per-call counters and timings when non-nil.
	Metrics *telemetry.Collector
}

// Client is an authenticated Linear GraphQL client. Safe for reuse across
// sequential calls; it holds no mutable state.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	metrics    *telemetry.Collector
}

var _ API = (*Client)(nil)

// NewClient creates a new Linear client from the given config.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		metrics: cfg.Metrics,
	}
}

// graphQLRequest is the wire shape of a Linear GraphQL call.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLResponse is the wire shape of a Linear GraphQL reply.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// execute performs a single GraphQL request and decodes the data payload
// into out. Transport failures, non-success HTTP statuses and GraphQL-level
// errors all surface as UpstreamError.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.IncrementCounter(telemetry.MetricLinearCalls, 1)
	}

	reqJSON, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return errortypes.InternalError(err, "error marshaling GraphQL request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return errortypes.InternalError(err, "error creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errortypes.NetworkError(err, "error sending request to Linear API")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errortypes.NetworkError(err, "error reading Linear response body")
	}

	if c.metrics != nil {
		c.metrics.RecordTiming(telemetry.MetricLinearResponseTime, time.Since(start))
	}

	if resp.StatusCode >= 400 {
		return errortypes.UpstreamError(
			fmt.Errorf("linear API returned %d: %s", resp.StatusCode, string(respBody)),
			"Linear request failed").
			WithField("status_code", resp.StatusCode)
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return errortypes.UpstreamError(err, "error unmarshaling Linear response")
	}
	if len(gqlResp.Errors) > 0 {
		return errortypes.UpstreamError(
			errors.New(gqlResp.Errors[0].Message),
			"Linear query failed")
	}

	if out != nil {
		if err := json.Unmarshal(gqlResp.Data, out); err != nil {
			return errortypes.UpstreamError(err, "error decoding Linear data payload")
		}
	}
	return nil
}

// issueFields is the selection set shared by every issue-returning operation.
const issueFields = `
	id
	identifier
	title
	description
	state {
		id
		name
		type
	}
	project {
		id
		name
	}
	team {
		id
		name
		key
	}`

// issueNode mirrors the GraphQL issue selection set.
type issueNode struct {
	ID          string `json:"id"`
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"state"`
	Project *Project `json:"project"`
	Team    *Team    `json:"team"`
}

// toIssue maps the raw GraphQL node into the normalized Issue shape.
func (n issueNode) toIssue() Issue {
	return Issue{
		ID:          n.ID,
		Identifier:  n.Identifier,
		Title:       n.Title,
		Description: n.Description,
		Status:      statusFromState(n.State.Type, n.State.Name),
		Project:     n.Project,
		Team:        n.Team,
	}
}

// ListTeams fetches all teams visible to the API key.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	const query = `query Teams {
		teams {
			nodes {
				id
				name
				key
			}
		}
	}`

	var data struct {
		Teams struct {
			Nodes []Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.execute(ctx, query, nil, &data); err != nil {
		return nil, err
	}
	return data.Teams.Nodes, nil
}

// ListProjects fetches the projects of the given team.
func (c *Client) ListProjects(ctx context.Context, teamID string) ([]Project, error) {
	const query = `query TeamProjects($teamId: String!) {
		team(id: $teamId) {
			projects {
				nodes {
					id
					name
				}
			}
		}
	}`

	var data struct {
		Team *struct {
			Projects struct {
				Nodes []Project `json:"nodes"`
			} `json:"projects"`
		} `json:"team"`
	}
	if err := c.execute(ctx, query, map[string]interface{}{"teamId": teamID}, &data); err != nil {
		return nil, err
	}
	if data.Team == nil {
		return nil, errortypes.NotFoundError(
			fmt.Errorf("team %q does not exist", teamID),
			"team not found").
			WithField("team_id", teamID)
	}
	return data.Team.Projects.Nodes, nil
}

// resolveStateID finds the workflow-state id matching the normalized status
// within the given team. Linear mutations take state ids, not state types,
// so issue creation and status updates with an explicit status need this
// extra lookup.
func (c *Client) resolveStateID(ctx context.Context, teamID string, status Status) (string, error) {
	const query = `query TeamStates($teamId: String!) {
		team(id: $teamId) {
			states {
				nodes {
					id
					name
					type
				}
			}
		}
	}`

	var data struct {
		Team *struct {
			States struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
					Type string `json:"type"`
				} `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := c.execute(ctx, query, map[string]interface{}{"teamId": teamID}, &data); err != nil {
		return "", err
	}
	if data.Team == nil {
		return "", errortypes.NotFoundError(
			fmt.Errorf("team %q does not exist", teamID),
			"team not found").
			WithField("team_id", teamID)
	}

	wantType := status.stateType()
	fallback := ""
	for _, st := range data.Team.States.Nodes {
		if statusFromState(st.Type, st.Name) == status {
			return st.ID, nil
		}
		if fallback == "" && st.Type == wantType {
			fallback = st.ID
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errortypes.NotFoundError(
		fmt.Errorf("no workflow state of type %q in team %q", wantType, teamID),
		"workflow state not found").
		WithField("status", string(status))
}

// CreateIssue creates a new issue. When input.Status is set, the matching
// workflow-state id is resolved first.
func (c *Client) CreateIssue(ctx context.Context, input CreateIssueInput) (*Issue, error) {
	mutation := `mutation CreateIssue($input: IssueCreateInput!) {
		issueCreate(input: $input) {
			success
			issue {` + issueFields + `
			}
		}
	}`

	issueInput := map[string]interface{}{
		"title":  input.Title,
		"teamId": input.TeamID,
	}
	if input.Description != "" {
		issueInput["description"] = input.Description
	}
	if input.ProjectID != "" {
		issueInput["projectId"] = input.ProjectID
	}
	if input.Status != "" {
		stateID, err := c.resolveStateID(ctx, input.TeamID, input.Status)
		if err != nil {
			return nil, err
		}
		issueInput["stateId"] = stateID
	}

	var data struct {
		IssueCreate struct {
			Success bool       `json:"success"`
			Issue   *issueNode `json:"issue"`
		} `json:"issueCreate"`
	}
	err := c.execute(ctx, mutation, map[string]interface{}{"input": issueInput}, &data)
	if err != nil {
		return nil, err
	}
	if !data.IssueCreate.Success || data.IssueCreate.Issue == nil {
		return nil, errortypes.UpstreamError(
			errors.New("issueCreate reported failure"),
			"failed to create issue").
			WithField("title", input.Title)
	}

	issue := data.IssueCreate.Issue.toIssue()
	return &issue, nil
}

// ListIssuesByStatus fetches issues whose workflow state matches the
// normalized status, most recently updated first.
func (c *Client) ListIssuesByStatus(ctx context.Context, status Status) ([]Issue, error) {
	query := `query IssuesByStatus($filter: IssueFilter, $first: Int!) {
		issues(filter: $filter, first: $first, orderBy: updatedAt) {
			nodes {` + issueFields + `
			}
		}
	}`

	// Duplicates share the canceled state type, so they filter by state
	// name instead.
	var filter map[string]interface{}
	if status == StatusDuplicate {
		filter = map[string]interface{}{
			"state": map[string]interface{}{
				"name": map[string]interface{}{"eqIgnoreCase": "duplicate"},
			},
		}
	} else {
		filter = map[string]interface{}{
			"state": map[string]interface{}{
				"type": map[string]interface{}{"eq": status.stateType()},
			},
		}
	}

	var data struct {
		Issues struct {
			Nodes []issueNode `json:"nodes"`
		} `json:"issues"`
	}
	vars := map[string]interface{}{"filter": filter, "first": pageSize}
	if err := c.execute(ctx, query, vars, &data); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(data.Issues.Nodes))
	for _, node := range data.Issues.Nodes {
		issues = append(issues, node.toIssue())
	}
	return issues, nil
}

// SearchIssuesByTitle fetches issues whose title contains the query,
// case-insensitively.
func (c *Client) SearchIssuesByTitle(ctx context.Context, query string) ([]Issue, error) {
	gql := `query SearchIssues($filter: IssueFilter, $first: Int!) {
		issues(filter: $filter, first: $first, orderBy: updatedAt) {
			nodes {` + issueFields + `
			}
		}
	}`

	filter := map[string]interface{}{
		"title": map[string]interface{}{"containsIgnoreCase": query},
	}

	var data struct {
		Issues struct {
			Nodes []issueNode `json:"nodes"`
		} `json:"issues"`
	}
	vars := map[string]interface{}{"filter": filter, "first": pageSize}
	if err := c.execute(ctx, gql, vars, &data); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(data.Issues.Nodes))
	for _, node := range data.Issues.Nodes {
		issues = append(issues, node.toIssue())
	}
	return issues, nil
}

// UpdateIssueStatus moves an issue to the workflow state matching the
// normalized status. The issue's team is fetched first to resolve the
// target state id.
func (c *Client) UpdateIssueStatus(ctx context.Context, issueID string, status Status) (*Issue, error) {
	const lookup = `query IssueTeam($id: String!) {
		issue(id: $id) {
			id
			team {
				id
			}
		}
	}`

	var found struct {
		Issue *struct {
			ID   string `json:"id"`
			Team *Team  `json:"team"`
		} `json:"issue"`
	}
	if err := c.execute(ctx, lookup, map[string]interface{}{"id": issueID}, &found); err != nil {
		return nil, err
	}
	if found.Issue == nil || found.Issue.Team == nil {
		return nil, errortypes.NotFoundError(
			fmt.Errorf("issue %q does not exist", issueID),
			"issue not found").
			WithField("issue_id", issueID)
	}

	stateID, err := c.resolveStateID(ctx, found.Issue.Team.ID, status)
	if err != nil {
		return nil, err
	}

	mutation := `mutation UpdateIssue($id: String!, $input: IssueUpdateInput!) {
		issueUpdate(id: $id, input: $input) {
			success
			issue {` + issueFields + `
			}
		}
	}`

	var data struct {
		IssueUpdate struct {
			Success bool       `json:"success"`
			Issue   *issueNode `json:"issue"`
		} `json:"issueUpdate"`
	}
	vars := map[string]interface{}{
		"id":    issueID,
		"input": map[string]interface{}{"stateId": stateID},
	}
	if err := c.execute(ctx, mutation, vars, &data); err != nil {
		return nil, err
	}
	if !data.IssueUpdate.Success || data.IssueUpdate.Issue == nil {
		return nil, errortypes.UpstreamError(
			errors.New("issueUpdate reported failure"),
			"failed to update issue status").
			WithField("issue_id", issueID)
	}

	issue := data.IssueUpdate.Issue.toIssue()
	return &issue, nil
}
