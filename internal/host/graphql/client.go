package graphql

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shurcooL/githubv4"
)

// Client encapsulates the third party package that communicates with the
// GitHub GraphQL API. The GraphQL endpoint is the only interface that
// exposes mergeStateStatus, reviewDecision and the check rollup as one
// atomic read, which is why the engine's state query goes through here and
// never through REST.
type Client struct {
	client *githubv4.Client
}

// NewClient creates and returns Client. The third party package that queries
// GraphQL is initialized here.
func NewClient(httpClient *http.Client, enterpriseBaseURL string) (*Client, error) {
	if enterpriseBaseURL == "" {
		return &Client{client: githubv4.NewClient(httpClient)}, nil
	}

	baseURL, err := url.JoinPath(enterpriseBaseURL, "api", "graphql")
	if err != nil {
		return nil, errors.Wrap(err, "not able to parse the enterprise URL")
	}

	return &Client{client: githubv4.NewEnterpriseClient(baseURL, httpClient)}, nil
}

// executeQuery takes a query struct and sends it to the GitHub GraphQL API
// via the helper package.
func (c *Client) executeQuery(ctx context.Context, qry interface{}, params map[string]interface{}) error {
	if err := c.client.Query(ctx, qry, params); err != nil {
		return errors.Wrap(err, "error in executing query")
	}

	return nil
}
