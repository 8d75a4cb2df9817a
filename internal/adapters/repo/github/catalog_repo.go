package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/artfolio/internal/domain"
)

type Options struct {
	Token  string
	Repo   string // owner/name
	Branch string
	Path   string
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string
}

// CatalogRepo keeps the catalog document in a GitHub repository. Writes carry
// the blob SHA read just before, so a concurrent commit makes the write fail
// instead of being overwritten.
type CatalogRepo struct {
	client *gh.Client
	owner  string
	repo   string
	branch string
	path   string
}

func NewCatalogRepo(opts Options) (*CatalogRepo, error) {
	owner, name, ok := strings.Cut(opts.Repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github repo must be owner/name, got %q", opts.Repo)
	}
	var httpClient *http.Client
	if opts.Token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	client := gh.NewClient(httpClient)
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = u
	}
	path := strings.TrimPrefix(opts.Path, "/")
	if path == "" {
		path = "data.json"
	}
	return &CatalogRepo{client: client, owner: owner, repo: name, branch: opts.Branch, path: path}, nil
}

func (r *CatalogRepo) Load(ctx context.Context) ([]domain.CatalogItem, error) {
	items, _, err := r.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return items, nil
}

func (r *CatalogRepo) Append(ctx context.Context, item domain.CatalogItem) error {
	items, sha, err := r.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}
	items = append([]domain.CatalogItem{item}, items...)
	data, err := domain.EncodeCatalog(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrStoreWrite, err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String("Add new artwork: " + item.Title),
		Content: data,
	}
	if r.branch != "" {
		opts.Branch = gh.String(r.branch)
	}
	if sha != "" {
		opts.SHA = gh.String(sha)
	}
	_, resp, err := r.client.Repositories.UpdateFile(ctx, r.owner, r.repo, r.path, opts)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity) {
			return fmt.Errorf("%w: %w: %w", domain.ErrStoreWrite, domain.ErrRevisionConflict, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}
	log.Info().Str("repo", r.owner+"/"+r.repo).Str("path", r.path).Str("id", item.ID).Msg("catalog document committed")
	return nil
}

// fetch returns the decoded document and its blob SHA. A missing document is
// an empty catalog with no SHA, so the first append creates it.
func (r *CatalogRepo) fetch(ctx context.Context) ([]domain.CatalogItem, string, error) {
	var opts *gh.RepositoryContentGetOptions
	if r.branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: r.branch}
	}
	fc, _, resp, err := r.client.Repositories.GetContents(ctx, r.owner, r.repo, r.path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return []domain.CatalogItem{}, "", nil
		}
		return nil, "", err
	}
	if fc == nil {
		return nil, "", errors.New(r.path + " is a directory")
	}
	content, err := fc.GetContent()
	if err != nil {
		return nil, "", err
	}
	items, err := domain.DecodeCatalog([]byte(content))
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", r.path, err)
	}
	return items, fc.GetSHA(), nil
}
