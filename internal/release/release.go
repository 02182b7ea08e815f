// Package release checks GitHub for newer releases of the client
package release

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"
)

const (
	DefaultOwner = "cchalm"
	DefaultRepo  = "agent-chat"
)

// Checker looks up the latest release of a repository
type Checker struct {
	client *github.Client
	owner  string
	repo   string
}

// NewChecker creates a checker for owner/repo. A non-empty token authenticates requests, which raises
// GitHub's rate limit. base is the transport requests go through, nil meaning the default one.
func NewChecker(ctx context.Context, owner string, repo string, token string, base http.RoundTripper) *Checker {
	httpClient := &http.Client{Transport: base}
	if token != "" {
		tokenSource := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, tokenSource)
	}
	return &Checker{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

// Latest returns the tag of the latest published release
func (c *Checker) Latest(ctx context.Context) (string, error) {
	rel, _, err := c.client.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return "", fmt.Errorf("failed to get latest release of %s/%s: %w", c.owner, c.repo, err)
	}
	return rel.GetTagName(), nil
}

// URL returns the web page of the repository
func (c *Checker) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s", c.owner, c.repo)
}

// IsNewer reports whether latest is a later version than current. Versions are dotted numbers with an
// optional leading "v" and an optional pre-release suffix after "-", which is ignored. Development
// builds and unparseable versions are never considered older than anything.
func IsNewer(current string, latest string) bool {
	cur, ok := parseVersion(current)
	if !ok {
		return false
	}
	lat, ok := parseVersion(latest)
	if !ok {
		return false
	}
	for i := 0; i < max(len(cur), len(lat)); i++ {
		var a, b int
		if i < len(cur) {
			a = cur[i]
		}
		if i < len(lat) {
			b = lat[i]
		}
		if a != b {
			return b > a
		}
	}
	return false
}

func parseVersion(v string) ([]int, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v, _, _ = strings.Cut(v, "-")
	if v == "" {
		return nil, false
	}
	fields := strings.Split(v, ".")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
