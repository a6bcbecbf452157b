// Package github fetches public repository statistics for project cards.
package github

import (
	"net/url"
	"regexp"
	"strings"
)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

var scpLike = regexp.MustCompile(`(?i)^git@github\.com:(.+)$`)

// ParseRepoURL accepts https and www GitHub URLs and the SSH form
// git@github.com:owner/repo(.git). Path segments are unescaped and a
// trailing ".git" is removed from the repository name.
func ParseRepoURL(raw string) (Repo, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repo{}, false
	}

	var host, path string
	if m := scpLike.FindStringSubmatch(raw); m != nil {
		host, path = "github.com", "/"+m[1]
	} else {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Repo{}, false
		}
		host, path = strings.ToLower(u.Hostname()), u.EscapedPath()
	}

	if host != "github.com" && host != "www.github.com" {
		return Repo{}, false
	}

	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return Repo{}, false
	}

	owner, err := url.PathUnescape(parts[0])
	if err != nil {
		return Repo{}, false
	}
	name, err := url.PathUnescape(parts[1])
	if err != nil {
		return Repo{}, false
	}
	if len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".git") {
		name = name[:len(name)-4]
	}

	if owner == "" || name == "" {
		return Repo{}, false
	}
	return Repo{Owner: owner, Name: name}, true
}

// NormalizeRepoURL rewrites any accepted form to https://github.com/owner/repo.
func NormalizeRepoURL(raw string) (string, bool) {
	repo, ok := ParseRepoURL(raw)
	if !ok {
		return "", false
	}
	return "https://github.com/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name), true
}
