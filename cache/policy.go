package cache

import (
	"fmt"
	"regexp"
	"time"
)

// ReadVerbRules match the common read-only operation prefixes. They cover
// the same verbs most remote APIs use for idempotent reads and are a
// reasonable starting rule set for a new configuration.
var ReadVerbRules = []string{"List.*", "Get.*", "Describe.*"}

// Policy decides which operations are eligible for caching and how long
// stored entries live.
//
// Eligibility is an OR over the configured match rules: an operation is
// cacheable if any rule matches its name. Rules are case-sensitive regular
// expressions anchored to the full operation name. An empty rule set makes
// nothing cacheable.
//
// Contract:
// - Cacheable is pure and total: it never fails and never mutates state.
//   Invalid rules are rejected at construction instead.
// - Concurrency: safe for concurrent use after construction.
type Policy struct {
	ttl   time.Duration
	raw   []string
	rules []*regexp.Regexp
}

// NewPolicy compiles the given match rules into a Policy. Rules are
// anchored to the full operation name, so "List" matches only the literal
// operation "List"; use "List.*" for a prefix match. A non-positive ttl
// falls back to DefaultTTL.
func NewPolicy(ttl time.Duration, rules []string) (*Policy, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &Policy{
		ttl:   ttl,
		raw:   append([]string(nil), rules...),
		rules: make([]*regexp.Regexp, 0, len(rules)),
	}
	for _, r := range rules {
		re, err := regexp.Compile("^(?:" + r + ")$")
		if err != nil {
			return nil, fmt.Errorf("cache: invalid match rule %q: %w", r, err)
		}
		p.rules = append(p.rules, re)
	}
	return p, nil
}

// Cacheable reports whether the operation matches any configured rule.
func (p *Policy) Cacheable(operation string) bool {
	for _, re := range p.rules {
		if re.MatchString(operation) {
			return true
		}
	}
	return false
}

// TTL returns the configured entry lifetime.
func (p *Policy) TTL() time.Duration {
	return p.ttl
}

// Rules returns a copy of the raw match rules, in configuration order.
func (p *Policy) Rules() []string {
	return append([]string(nil), p.raw...)
}
