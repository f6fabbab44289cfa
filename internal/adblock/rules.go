// Package adblock holds the static network block list and the
// process-lifetime count of blocked requests.
package adblock

import (
	"net/url"
	"slices"
	"strings"
)

// Default block list
var (
	DefaultDomains       = []string{"doubleclick.net", "google-analytics.com", "adnxs.com"}
	DefaultResourceTypes = []string{"image", "sub_frame", "script"}
)

// Rules is a single block rule over a set of domains and resource types
type Rules struct {
	Domains       []string
	ResourceTypes []string
}

// NewRules normalizes the lists, falling back to the defaults when empty
func NewRules(domains, resourceTypes []string) Rules {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	if len(resourceTypes) == 0 {
		resourceTypes = DefaultResourceTypes
	}
	r := Rules{
		Domains:       make([]string, 0, len(domains)),
		ResourceTypes: make([]string, 0, len(resourceTypes)),
	}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" && !slices.Contains(r.Domains, d) {
			r.Domains = append(r.Domains, d)
		}
	}
	for _, t := range resourceTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(r.ResourceTypes, t) {
			r.ResourceTypes = append(r.ResourceTypes, t)
		}
	}
	return r
}

// Matches reports whether a request for rawURL of the given resource type
// is blocked. Hosts match a listed domain exactly or as a subdomain.
func (r Rules) Matches(rawURL, resourceType string) bool {
	if !slices.Contains(r.ResourceTypes, strings.ToLower(resourceType)) {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return false
	}
	for _, d := range r.Domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// DeclarativeRule is the browser rule-engine representation of Rules
type DeclarativeRule struct {
	ID        int                `json:"id"`
	Priority  int                `json:"priority"`
	Action    DeclarativeAction  `json:"action"`
	Condition DeclarativeCondition `json:"condition"`
}

// DeclarativeAction is the rule's effect
type DeclarativeAction struct {
	Type string `json:"type"`
}

// DeclarativeCondition selects the requests a rule applies to
type DeclarativeCondition struct {
	URLFilter     string   `json:"urlFilter"`
	ResourceTypes []string `json:"resourceTypes"`
	Domains       []string `json:"domains"`
}

// RuleID is the id of the single installed rule; reinstalling replaces it
const RuleID = 1

// Declarative renders the rule set for installation in a browser rule engine
func (r Rules) Declarative() []DeclarativeRule {
	return []DeclarativeRule{{
		ID:       RuleID,
		Priority: 1,
		Action:   DeclarativeAction{Type: "block"},
		Condition: DeclarativeCondition{
			URLFilter:     "*",
			ResourceTypes: slices.Clone(r.ResourceTypes),
			Domains:       slices.Clone(r.Domains),
		},
	}}
}
