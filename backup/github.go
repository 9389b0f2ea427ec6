// Package backup pushes record exports to a GitHub repository.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"

	"voicemix/logger"
)

var ErrNoToken = errors.New("GitHub token is required")

// Pusher creates or updates a single file in owner/repo.
type Pusher struct {
	client *github.Client
	owner  string
	repo   string
	branch string
	logger *slog.Logger
}

// NewPusher takes repo as "owner/name".
func NewPusher(token, repo, branch string) (*Pusher, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("repo must be owner/name, got %q", repo)
	}
	return &Pusher{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
		repo:   name,
		branch: branch,
		logger: logger.WithComponent("backup"),
	}, nil
}

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise.
func (p *Pusher) WithBaseURL(base string) (*Pusher, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	p.client.BaseURL = u
	return p, nil
}

// Push writes content to path with message, updating the file when it
// already exists. It returns the file's HTML URL.
func (p *Pusher) Push(ctx context.Context, path string, content []byte, message string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	var getOpts *github.RepositoryContentGetOptions
	if p.branch != "" {
		opts.Branch = github.String(p.branch)
		getOpts = &github.RepositoryContentGetOptions{Ref: p.branch}
	}

	existing, _, resp, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, path, getOpts)
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		res, _, err := p.client.Repositories.UpdateFile(ctx, p.owner, p.repo, path, opts)
		if err != nil {
			return "", fmt.Errorf("updating %s: %w", path, err)
		}
		p.logger.Info("Updated file", slog.String("repo", p.owner+"/"+p.repo), slog.String("path", path))
		return res.GetContent().GetHTMLURL(), nil

	case resp != nil && resp.StatusCode == http.StatusNotFound:
		res, _, err := p.client.Repositories.CreateFile(ctx, p.owner, p.repo, path, opts)
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
		p.logger.Info("Created file", slog.String("repo", p.owner+"/"+p.repo), slog.String("path", path))
		return res.GetContent().GetHTMLURL(), nil

	case err != nil:
		return "", fmt.Errorf("reading %s: %w", path, err)

	default:
		return "", fmt.Errorf("%s is a directory", path)
	}
}
