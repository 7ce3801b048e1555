package interfaces

import (
	"context"
)

// RepoFetcher materializes a repository on local disk for ingestion
type RepoFetcher interface {
	// Fetch downloads or locates the repository and returns the directory
	// holding its working tree. cleanup removes any scratch space and is
	// always safe to call.
	Fetch(ctx context.Context, gitURL string) (dir string, cleanup func(), err error)
}
