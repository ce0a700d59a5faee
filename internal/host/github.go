package host

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-github/v54/github"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/octoflow/mergecoord/internal/host/graphql"
	"github.com/octoflow/mergecoord/internal/host/model"
)

const perPageMax = 100

// GitHubClient is the production Client. State reads go through GraphQL
// (the only strongly-consistent view of mergeStateStatus); mutations go
// through REST. Both share one token and one quota tracker.
type GitHubClient struct {
	rest    *github.Client
	graphql *graphql.Client
	quota   *QuotaTracker
	log     *logrus.Logger
}

// Options configures the GitHub client. Zero values target github.com with
// the default quota threshold.
type Options struct {
	Token               string
	EnterpriseBaseURL   string
	EnterpriseUploadURL string
	QuotaThreshold      int
	Logger              *logrus.Logger
}

func NewGitHubClient(opts Options) (*GitHubClient, error) {
	if opts.Token == "" {
		return nil, errors.Wrap(ErrAuthFailed, "no access token configured")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	tc := oauth2.NewClient(context.Background(), ts)

	rest, err := newRESTClient(tc, opts.EnterpriseBaseURL, opts.EnterpriseUploadURL)
	if err != nil {
		return nil, err
	}

	gql, err := graphql.NewClient(tc, opts.EnterpriseBaseURL)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}

	return &GitHubClient{
		rest:    rest,
		graphql: gql,
		quota:   NewQuotaTracker(opts.QuotaThreshold),
		log:     log,
	}, nil
}

func newRESTClient(authenticatedClient *http.Client, baseRawURL, uploadRawURL string) (*github.Client, error) {
	if baseRawURL == "" || uploadRawURL == "" {
		return github.NewClient(authenticatedClient), nil
	}

	baseURL, err := url.Parse(baseRawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid enterprise base URL")
	}
	baseURL.Path = path.Join(baseURL.Path, "api", "v3")

	uploadURL, err := url.Parse(uploadRawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid enterprise upload URL")
	}
	uploadURL.Path = path.Join(uploadURL.Path, "api", "v3")

	return github.NewEnterpriseClient(baseURL.String(), uploadURL.String(), authenticatedClient)
}

func (c *GitHubClient) Quota() *QuotaTracker {
	return c.quota
}

func (c *GitHubClient) MergeState(ctx context.Context, handle model.PullRequestHandle) (*model.MergeState, error) {
	state, err := c.graphql.GetMergeState(ctx, handle)
	if err != nil {
		return nil, classifyGraphQLError(err)
	}
	return state, nil
}

func (c *GitHubClient) Merge(ctx context.Context, handle model.PullRequestHandle, opts MergeOptions) (string, error) {
	if err := c.quota.GuardMutation(); err != nil {
		return "", err
	}

	ghOpts := &github.PullRequestOptions{
		CommitTitle: opts.CommitTitle,
		SHA:         opts.ExpectedHeadOID,
		MergeMethod: string(opts.Method),
	}

	result, resp, err := c.rest.PullRequests.Merge(ctx, handle.Owner, handle.Repo, handle.Number, opts.CommitMessage, ghOpts)
	c.track(resp)
	if err != nil {
		return "", classifyRESTError(err)
	}
	if !result.GetMerged() {
		return "", errors.Wrap(ErrNotMergeable, result.GetMessage())
	}

	return result.GetSHA(), nil
}

func (c *GitHubClient) ListCommits(ctx context.Context, handle model.PullRequestHandle) ([]model.Commit, error) {
	var commits []model.Commit
	opts := &github.ListOptions{PerPage: perPageMax}

	for {
		page, resp, err := c.rest.PullRequests.ListCommits(ctx, handle.Owner, handle.Repo, handle.Number, opts)
		c.track(resp)
		if err != nil {
			return nil, classifyRESTError(err)
		}

		for _, rc := range page {
			commit := model.Commit{
				OID:     rc.GetSHA(),
				Message: rc.GetCommit().GetMessage(),
				Author: model.CommitAuthor{
					Name:  rc.GetCommit().GetAuthor().GetName(),
					Email: rc.GetCommit().GetAuthor().GetEmail(),
					Login: rc.GetAuthor().GetLogin(),
				},
			}
			commits = append(commits, commit)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return commits, nil
}

func (c *GitHubClient) OpenPullRequestsWithBase(ctx context.Context, owner, repo, base string) (int, error) {
	count := 0
	opts := &github.PullRequestListOptions{
		State:       "open",
		Base:        base,
		ListOptions: github.ListOptions{PerPage: perPageMax},
	}

	for {
		page, resp, err := c.rest.PullRequests.List(ctx, owner, repo, opts)
		c.track(resp)
		if err != nil {
			return 0, classifyRESTError(err)
		}
		count += len(page)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return count, nil
}

func (c *GitHubClient) DeleteBranch(ctx context.Context, owner, repo, branch string) error {
	if err := c.quota.GuardMutation(); err != nil {
		return err
	}

	resp, err := c.rest.Git.DeleteRef(ctx, owner, repo, "heads/"+branch)
	c.track(resp)
	if err != nil {
		return classifyRESTError(err)
	}
	return nil
}

func (c *GitHubClient) Commit(ctx context.Context, owner, repo, oid string) (*model.Commit, error) {
	commit, resp, err := c.rest.Git.GetCommit(ctx, owner, repo, oid)
	c.track(resp)
	if err != nil {
		return nil, classifyRESTError(err)
	}

	result := &model.Commit{
		OID:     commit.GetSHA(),
		Message: commit.GetMessage(),
		TreeOID: commit.GetTree().GetSHA(),
		Author: model.CommitAuthor{
			Name:  commit.GetAuthor().GetName(),
			Email: commit.GetAuthor().GetEmail(),
		},
	}
	for _, parent := range commit.Parents {
		result.Parents = append(result.Parents, parent.GetSHA())
	}

	return result, nil
}

func (c *GitHubClient) BranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	ref, resp, err := c.rest.Git.GetRef(ctx, owner, repo, "heads/"+branch)
	c.track(resp)
	if err != nil {
		return "", classifyRESTError(err)
	}
	return ref.GetObject().GetSHA(), nil
}

func (c *GitHubClient) CreateCommit(ctx context.Context, owner, repo, message, treeOID, parentOID string) (string, error) {
	if err := c.quota.GuardMutation(); err != nil {
		return "", err
	}

	commit := &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeOID)},
		Parents: []*github.Commit{{SHA: github.String(parentOID)}},
	}

	created, resp, err := c.rest.Git.CreateCommit(ctx, owner, repo, commit)
	c.track(resp)
	if err != nil {
		return "", classifyRESTError(err)
	}
	return created.GetSHA(), nil
}

func (c *GitHubClient) CreateBranch(ctx context.Context, owner, repo, branch, oid string) error {
	if err := c.quota.GuardMutation(); err != nil {
		return err
	}

	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(oid)},
	}

	_, resp, err := c.rest.Git.CreateRef(ctx, owner, repo, ref)
	c.track(resp)
	if err != nil {
		return classifyRESTError(err)
	}
	return nil
}

func (c *GitHubClient) UpdateBranch(ctx context.Context, owner, repo, branch, oid string, force bool) error {
	if err := c.quota.GuardMutation(); err != nil {
		return err
	}

	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(oid)},
	}

	_, resp, err := c.rest.Git.UpdateRef(ctx, owner, repo, ref, force)
	c.track(resp)
	if err != nil {
		return classifyRESTError(err)
	}
	return nil
}

func (c *GitHubClient) track(resp *github.Response) {
	if resp == nil {
		return
	}
	c.quota.Update(resp.Rate)
	if remaining, limit, ok := c.quota.Snapshot(); ok {
		c.log.WithFields(logrus.Fields{"remaining": remaining, "limit": limit}).Debug("rate limit quota")
	}
}

func classifyRESTError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return errors.Wrap(ErrRateLimitCritical, err.Error())
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrap(ErrAuthFailed, err.Error())
		case http.StatusNotFound:
			return errors.Wrap(ErrNotFound, err.Error())
		case http.StatusMethodNotAllowed:
			return errors.Wrap(ErrNotMergeable, ghErr.Message)
		case http.StatusConflict:
			return errors.Wrap(ErrHeadChanged, ghErr.Message)
		}
	}

	return errors.Wrap(ErrHostUnavailable, err.Error())
}

// classifyGraphQLError maps the flat error strings the GraphQL transport
// produces onto the host taxonomy.
func classifyGraphQLError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Could not resolve"):
		return errors.Wrap(ErrNotFound, msg)
	case strings.Contains(msg, "401") || strings.Contains(msg, "Bad credentials"):
		return errors.Wrap(ErrAuthFailed, msg)
	default:
		return errors.Wrap(ErrHostUnavailable, msg)
	}
}
