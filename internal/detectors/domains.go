package detectors

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultTrustedDomains are hosts treated as legitimate distribution or
// ecosystem endpoints. Subdomains of an entry are trusted as well.
var DefaultTrustedDomains = []string{
	"github.com", "raw.githubusercontent.com", "gist.githubusercontent.com",
	"api.github.com", "avatars.githubusercontent.com",
	"discord.com", "discordapp.com", "cdn.discordapp.com",
	"fivemanager.com", "api.fivemanager.com",
	"cfx.re", "forum.cfx.re", "docs.fivem.net", "runtime.fivem.net",
	"keymaster.fivem.net", "policy.fivem.net",
	"localhost", "127.0.0.1", "0.0.0.0",
	"pastebin.com", "hastebin.com", "paste.ee",
	"googleapis.com", "google.com", "microsoft.com",
}

var reURLHost = regexp.MustCompile(`(?i)https?://([^/\s'"]+)`)

// DomainSet answers "is this host trusted" with exact and parent-domain
// lookups against a set, so the domain list never has to be embedded in a
// regular expression.
type DomainSet struct {
	hosts map[string]struct{}
}

// NewDomainSet builds a set from the given domains.
func NewDomainSet(domains ...string) *DomainSet {
	s := &DomainSet{hosts: make(map[string]struct{}, len(domains))}
	s.Add(domains...)
	return s
}

// Add inserts domains into the set. Blank entries are ignored.
func (s *DomainSet) Add(domains ...string) {
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d == "" {
			continue
		}
		s.hosts[d] = struct{}{}
	}
}

// Len returns the number of entries.
func (s *DomainSet) Len() int { return len(s.hosts) }

// HostTrusted reports whether host equals a trusted domain or is one of its
// subdomains. A leading "www." and any ":port" suffix are ignored.
func (s *DomainSet) HostTrusted(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return false
	}
	for {
		if _, ok := s.hosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

// IsTrusted parses rawURL and checks its host. URLs that fail to parse or
// carry no host are untrusted.
func (s *DomainSet) IsTrusted(rawURL string) bool {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(rawURL)))
	if err != nil || u.Host == "" {
		return false
	}
	return s.HostTrusted(u.Hostname())
}

// ExtractHosts returns the host part of every http(s) URL in line.
func ExtractHosts(line string) []string {
	var out []string
	for _, m := range reURLHost.FindAllStringSubmatch(line, -1) {
		out = append(out, m[1])
	}
	return out
}

// HasUntrustedURL reports whether line contains at least one URL whose host
// is not trusted. A line without URLs has none.
func (s *DomainSet) HasUntrustedURL(line string) bool {
	for _, h := range ExtractHosts(line) {
		if !s.IsTrusted("http://" + h) {
			return true
		}
	}
	return false
}
