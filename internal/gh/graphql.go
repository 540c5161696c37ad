package gh

import (
	"context"
	"encoding/json"
	"fmt"
)

// GraphQL documents used for issue creation and sub-issue linking.
// Variables are passed as gh api graphql -f fields.
const (
	repositoryIDQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) { id }
}`

	labelIDsQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    labels(first: 100) { nodes { id name } }
  }
}`

	createIssueMutation = `mutation($repositoryId: ID!, $title: String!, $body: String, $labelIds: [ID!]) {
  createIssue(input: {repositoryId: $repositoryId, title: $title, body: $body, labelIds: $labelIds}) {
    issue { id number url }
  }
}`

	addSubIssueMutation = `mutation($issueId: ID!, $subIssueId: ID!) {
  addSubIssue(input: {issueId: $issueId, subIssueId: $subIssueId}) {
    issue { id }
  }
}`
)

// graphql runs one gh api graphql invocation and decodes the data
// envelope into out. GraphQL-level errors abort with the raw payload.
func (c *CLIClient) graphql(ctx context.Context, op string, args []string, out any) error {
	full := append([]string{"api", "graphql"}, args...)
	output, err := c.run(ctx, op, full...)
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(output, &envelope); err != nil {
		return fmt.Errorf("%s: decode graphql envelope: %w", op, err)
	}
	if len(envelope.Errors) > 0 {
		return &APIError{Op: op, Output: output, Err: fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%s: decode graphql data: %w", op, err)
		}
	}
	return nil
}

func splitRepo(repo string) (owner, name string, err error) {
	for i := 0; i < len(repo); i++ {
		if repo[i] == '/' {
			return repo[:i], repo[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid repo format: %s (expected owner/repo)", repo)
}

// repositoryID resolves and caches the GraphQL node ID of a repository.
func (c *CLIClient) repositoryID(ctx context.Context, repo string) (string, error) {
	if id, ok := c.repoIDs[repo]; ok {
		return id, nil
	}

	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	var resp struct {
		Repository struct {
			ID string `json:"id"`
		} `json:"repository"`
	}
	err = c.graphql(ctx, "resolve repository id", []string{
		"-f", "query=" + repositoryIDQuery,
		"-f", "owner=" + owner,
		"-f", "name=" + name,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Repository.ID == "" {
		return "", fmt.Errorf("repository %s not found", repo)
	}

	c.repoIDs[repo] = resp.Repository.ID
	return resp.Repository.ID, nil
}

// labelIDs maps label names to their GraphQL node IDs. A missing label
// is an error; labels sync creates the managed set up front.
func (c *CLIClient) labelIDs(ctx context.Context, repo string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Repository struct {
			Labels struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"labels"`
		} `json:"repository"`
	}
	err = c.graphql(ctx, "resolve label ids", []string{
		"-f", "query=" + labelIDsQuery,
		"-f", "owner=" + owner,
		"-f", "name=" + name,
	}, &resp)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(resp.Repository.Labels.Nodes))
	for _, n := range resp.Repository.Labels.Nodes {
		byName[n.Name] = n.ID
	}

	ids := make([]string, 0, len(names))
	for _, want := range names {
		id, ok := byName[want]
		if !ok {
			return nil, fmt.Errorf("label %q does not exist on %s (run: specsync labels sync)", want, repo)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateIssue creates an issue through the GraphQL createIssue mutation.
func (c *CLIClient) CreateIssue(ctx context.Context, repo, title, body string, labelNames []string) (*IssueRef, error) {
	repoID, err := c.repositoryID(ctx, repo)
	if err != nil {
		return nil, err
	}
	ids, err := c.labelIDs(ctx, repo, labelNames)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-f", "query=" + createIssueMutation,
		"-f", "repositoryId=" + repoID,
		"-f", "title=" + title,
		"-f", "body=" + body,
	}
	for _, id := range ids {
		args = append(args, "-f", "labelIds[]="+id)
	}

	var resp struct {
		CreateIssue struct {
			Issue struct {
				ID     string `json:"id"`
				Number int    `json:"number"`
				URL    string `json:"url"`
			} `json:"issue"`
		} `json:"createIssue"`
	}
	if err := c.graphql(ctx, "createIssue mutation", args, &resp); err != nil {
		return nil, err
	}
	if resp.CreateIssue.Issue.Number == 0 {
		return nil, fmt.Errorf("createIssue mutation returned no issue")
	}

	return &IssueRef{
		Number: resp.CreateIssue.Issue.Number,
		NodeID: resp.CreateIssue.Issue.ID,
		URL:    resp.CreateIssue.Issue.URL,
	}, nil
}

// AddSubIssue links a child issue to its Epic parent.
func (c *CLIClient) AddSubIssue(ctx context.Context, repo, parentNodeID, childNodeID string) error {
	args := []string{
		"-H", "GraphQL-Features: sub_issues",
		"-f", "query=" + addSubIssueMutation,
		"-f", "issueId=" + parentNodeID,
		"-f", "subIssueId=" + childNodeID,
	}
	return c.graphql(ctx, "addSubIssue mutation", args, nil)
}
