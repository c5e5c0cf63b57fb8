// Package traffic derives the referrer host and traffic source of a click.
package traffic

import (
	"net/url"
	"strings"

	"github.com/axellelanca/redirector/internal/models"
)

// rule maps a set of hostname fragments to a source type.
// Rules are evaluated in order and the first match wins.
type rule struct {
	source    models.SourceType
	fragments []string
}

// Matching is substring containment on the lowercased host, so a host such as
// "notgoogle.example" counts as search. Add exact-suffix rules here if that
// ever needs to change.
var rules = []rule{
	{
		source:    models.SourceSearch,
		fragments: []string{"google.", "bing.", "duckduckgo.", "yahoo."},
	},
	{
		source: models.SourceSocial,
		fragments: []string{
			"x.com", "twitter.com", "facebook.com", "instagram.com",
			"tiktok.com", "linkedin.com", "reddit.com", "youtube.com",
		},
	},
}

// ReferrerHost returns the hostname of an absolute referrer URL.
// An empty, relative or unparseable referrer yields "".
func ReferrerHost(rawReferrer string) string {
	rawReferrer = strings.TrimSpace(rawReferrer)
	if rawReferrer == "" {
		return ""
	}
	u, err := url.Parse(rawReferrer)
	if err != nil || !u.IsAbs() {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Classify maps a referrer host to its traffic source. An empty host is direct
// traffic; an unrecognised one is a plain referral.
func Classify(host string) models.SourceType {
	if host == "" {
		return models.SourceDirect
	}
	host = strings.ToLower(host)
	for _, r := range rules {
		for _, fragment := range r.fragments {
			if strings.Contains(host, fragment) {
				return r.source
			}
		}
	}
	return models.SourceReferral
}
