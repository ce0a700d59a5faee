package graphql

import (
	"github.com/shurcooL/githubv4"
)

const (
	queryParamOwner    = "repositoryOwner"
	queryParamRepo     = "repositoryName"
	queryParamPRNumber = "prNumber"
)

type (
	mergeCommitQuery struct {
		OID githubv4.GitObjectID `graphql:"oid"`
	}

	reviewThreadsQuery struct {
		Nodes []struct {
			IsResolved githubv4.Boolean
		}
	}

	headCommitQuery struct {
		Nodes []struct {
			Commit struct {
				OID               githubv4.GitObjectID `graphql:"oid"`
				StatusCheckRollup struct {
					State githubv4.StatusState
				}
			}
		}
	}

	mergeStateQuery struct {
		Repository struct {
			PullRequest struct {
				State            githubv4.PullRequestState
				Merged           githubv4.Boolean
				MergedAt         *githubv4.DateTime
				MergeCommit      *mergeCommitQuery
				Mergeable        githubv4.MergeableState
				MergeStateStatus githubv4.MergeStateStatus
				ReviewDecision   githubv4.PullRequestReviewDecision
				Title            githubv4.String
				Body             githubv4.String
				BaseRefName      githubv4.String
				HeadRefName      githubv4.String
				HeadRefOID       githubv4.GitObjectID `graphql:"headRefOid"`
				ReviewThreads    reviewThreadsQuery   `graphql:"reviewThreads(first: 100)"`
				Commits          headCommitQuery      `graphql:"commits(last: 1)"`
			} `graphql:"pullRequest(number: $prNumber)"`
		} `graphql:"repository(owner: $repositoryOwner, name: $repositoryName)"`
	}
)
