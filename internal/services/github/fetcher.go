package github

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"golang.org/x/oauth2"
)

// Fetcher implements interfaces.RepoFetcher. GitHub URLs are materialized by
// downloading the default-branch tarball; paths that already exist on disk
// are used in place with a no-op cleanup.
type Fetcher struct {
	client  *gogithub.Client
	http    *http.Client
	workDir string
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.RepoFetcher = (*Fetcher)(nil)

// NewFetcher creates a repo fetcher. The token is optional; without it only
// public repositories are reachable.
func NewFetcher(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*Fetcher, error) {
	timeout, err := time.ParseDuration(config.GitHub.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid github request timeout '%s': %w", config.GitHub.RequestTimeout, err)
	}

	httpClient := &http.Client{Timeout: timeout}

	token, _ := common.ResolveAPIKey(context.Background(), kvStorage, "github_token", config.GitHub.Token)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}

	return &Fetcher{
		client:  gogithub.NewClient(httpClient),
		http:    httpClient,
		workDir: config.Ingest.WorkDir,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Fetch materializes the repository working tree on local disk
func (f *Fetcher) Fetch(ctx context.Context, gitURL string) (string, func(), error) {
	noop := func() {}

	// Local path passthrough for already checked-out repos
	if info, err := os.Stat(gitURL); err == nil && info.IsDir() {
		f.logger.Debug().Str("path", gitURL).Msg("Using local repository directory")
		return gitURL, noop, nil
	}

	owner, repo, err := parseGitHubURL(gitURL)
	if err != nil {
		return "", noop, err
	}

	if err := os.MkdirAll(f.workDir, 0755); err != nil {
		return "", noop, fmt.Errorf("failed to create work directory: %w", err)
	}
	dest, err := os.MkdirTemp(f.workDir, "repo_")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create checkout directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dest) }

	archiveURL, _, err := f.client.Repositories.GetArchiveLink(ctx, owner, repo,
		gogithub.Tarball, &gogithub.RepositoryContentGetOptions{}, 5)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to resolve archive link for %s/%s: %w", owner, repo, err)
	}

	root, err := f.downloadAndExtract(ctx, archiveURL.String(), dest)
	if err != nil {
		cleanup()
		return "", noop, err
	}

	f.logger.Info().
		Str("owner", owner).
		Str("repo", repo).
		Str("dir", root).
		Msg("Repository tarball fetched")

	return root, cleanup, nil
}

// downloadAndExtract streams the tarball into dest, returning the path of the
// single top-level directory GitHub wraps archives in.
func (f *Fetcher) downloadAndExtract(ctx context.Context, archiveURL, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build archive request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive download returned status %d", resp.StatusCode)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	topDir := ""
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read tar entry: %w", err)
		}

		cleanName := filepath.Clean(header.Name)
		if cleanName == "." || strings.HasPrefix(cleanName, "..") {
			continue
		}
		if topDir == "" {
			topDir = strings.SplitN(cleanName, string(filepath.Separator), 2)[0]
		}

		target := filepath.Join(dest, cleanName)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(filepath.Separator)) {
			return "", fmt.Errorf("tar entry escapes destination: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", cleanName, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", fmt.Errorf("failed to create parent of %s: %w", cleanName, err)
			}
			out, err := os.Create(target)
			if err != nil {
				return "", fmt.Errorf("failed to create file %s: %w", cleanName, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", fmt.Errorf("failed to write file %s: %w", cleanName, err)
			}
			out.Close()
		}
	}

	if topDir == "" {
		return "", fmt.Errorf("archive contained no entries")
	}
	return filepath.Join(dest, topDir), nil
}

// parseGitHubURL extracts owner and repo from a github.com URL
func parseGitHubURL(gitURL string) (owner, repo string, err error) {
	parsed, err := url.Parse(strings.TrimSpace(gitURL))
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL %q: %w", gitURL, err)
	}
	if !strings.HasSuffix(strings.ToLower(parsed.Host), "github.com") {
		return "", "", fmt.Errorf("unsupported repository host %q (expected github.com or a local path)", parsed.Host)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository URL %q must include owner and repo", gitURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
