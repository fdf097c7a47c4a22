package policy

import (
	"strconv"

	"github.com/chriserin/retrygen/internal/tags"
)

const (
	DefaultRetryTag       = "retry"
	DefaultRetryExceptTag = "retryExcept"
)

// RetryPolicy is the retry configuration resolved for one scenario.
// Attempts counts extra tries after the first one; zero means no wrapping.
type RetryPolicy struct {
	Attempts   int
	ExemptType string // exception type that bypasses retry, "" for none
}

// Enabled reports whether the scenario should be wrapped in an attempt loop.
func (p RetryPolicy) Enabled() bool {
	return p.Attempts > 0
}

// Resolver reads retry policies from scenario and feature tags.
type Resolver struct {
	RetryTag       string
	RetryExceptTag string
}

// Default returns a Resolver using the "retry" and "retryExcept" tags.
func Default() Resolver {
	return Resolver{RetryTag: DefaultRetryTag, RetryExceptTag: DefaultRetryExceptTag}
}

// Resolve computes the policy for a scenario. Scenario tags take precedence
// over feature tags; sources are never merged. A retry count that is missing
// or does not parse as a non-negative integer falls through to the next source.
func (r Resolver) Resolve(scenarioTags, featureTags tags.Set) RetryPolicy {
	var p RetryPolicy

	attempts, ok := lookup(r.RetryTag, parseCount, scenarioTags, featureTags)
	if !ok || attempts == 0 {
		return p
	}
	p.Attempts = attempts

	p.ExemptType, _ = lookup(r.RetryExceptTag, parseRaw, scenarioTags, featureTags)
	return p
}

// IsPolicyTag reports whether t is one of the resolver's tags. Policy tags
// are not emitted as test categories.
func (r Resolver) IsPolicyTag(t tags.Tag) bool {
	return t.Is(r.RetryTag) || t.Is(r.RetryExceptTag)
}

func lookup[T any](name string, parse func(string) (T, bool), sources ...tags.Set) (T, bool) {
	for _, src := range sources {
		raw, found := src.Value(name)
		if !found {
			continue
		}
		if v, ok := parse(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func parseCount(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseRaw(raw string) (string, bool) {
	return raw, true
}
