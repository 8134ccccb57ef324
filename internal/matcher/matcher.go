package matcher

import (
	"fmt"
	"strings"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/config"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/internal/query"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// MatchResult represents a match between a request and a config
type MatchResult struct {
	Config   *config.Config
	Score    int
	Wildcard bool
}

const (
	NegativeMatchScore = -1
)

// CalculateMatchScore calculates how well a request matches a config.
// If score is negative, the request explicitly does not match.
// If the score is zero, no conditions were specified by the matcher.
func CalculateMatchScore(req *exchange.RequestSnapshot, matcher *config.RequestMatcher) (score int, isWildcard bool) {
	if matcher.Method != "" {
		if !strings.EqualFold(matcher.Method, req.Method()) {
			return NegativeMatchScore, false
		}
		score++
	}

	if matcher.Path != "" {
		pathScore, wildcard, ok := matchPath(matcher.Path, req.Path())
		if !ok {
			return NegativeMatchScore, false
		}
		score += pathScore
		isWildcard = wildcard
	}

	for key, condition := range matcher.RequestHeaders {
		actual, _ := req.Header(key)
		first, _ := actual.First()
		if !condition.Match(first) {
			return NegativeMatchScore, false
		}
		score++
	}

	for key, condition := range matcher.QueryParams {
		actual, _ := req.GetParameter(key, false)
		first, _ := actual.First()
		if !condition.Match(first) {
			return NegativeMatchScore, false
		}
		score++
	}

	if matcher.RequestBody != nil {
		if !MatchBody(req.Body(), *matcher.RequestBody) {
			return NegativeMatchScore, false
		}
		score++
	}

	logger.Tracef("request %s %s base match score %d for matcher %v", req.Method(), req.Path(), score, matcher)
	return score, isWildcard
}

// matchPath compares segment by segment. A {name} segment matches any value
// and a trailing * matches any remainder.
func matchPath(pattern, path string) (score int, wildcard bool, ok bool) {
	resourceSegments := strings.Split(strings.Trim(pattern, "/"), "/")
	requestSegments := strings.Split(strings.Trim(path, "/"), "/")

	if last := len(resourceSegments) - 1; resourceSegments[last] == "*" {
		wildcard = true
		resourceSegments = resourceSegments[:last]
		if len(requestSegments) < len(resourceSegments) {
			return 0, false, false
		}
		requestSegments = requestSegments[:len(resourceSegments)]
	} else if len(resourceSegments) != len(requestSegments) {
		return 0, false, false
	}

	for i, segment := range resourceSegments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			continue
		}
		if requestSegments[i] != segment {
			return 0, false, false
		}
		score++
	}
	// the path itself counts once even when every segment is a placeholder
	return score + 1, wildcard, true
}

// MatchBody checks a body condition against the request body
func MatchBody(doc body.Descriptor, condition config.BodyMatchCondition) bool {
	if condition.JSONPath != "" {
		return matchJSONPath(doc, condition)
	} else if condition.XPath != "" {
		result, success := query.XPath(doc, condition.XPath, condition.XMLNamespaces)
		return success && condition.Match(result)
	}
	s, _ := doc.AsString()
	return condition.Match(s)
}

func matchJSONPath(doc body.Descriptor, condition config.BodyMatchCondition) bool {
	result, success := query.JSONPath(doc, condition.JSONPath)
	if !success {
		return false
	}

	switch v := result.(type) {
	case string:
		return condition.Match(v)
	case []interface{}:
		// For array results, check if any element matches
		for _, item := range v {
			if condition.Match(fmt.Sprintf("%v", item)) {
				return true
			}
		}
		return false
	case nil:
		return condition.Match("")
	default:
		return condition.Match(fmt.Sprintf("%v", v))
	}
}

// FindBestMatch picks the highest score, preferring non-wildcard matches on
// equal scores. tie reports an unresolved draw.
func FindBestMatch(matches []MatchResult) (best MatchResult, tie bool) {
	if len(matches) == 0 {
		return MatchResult{}, false
	}

	best = matches[0]
	for _, m := range matches[1:] {
		if m.Score > best.Score {
			best = m
			tie = false
		} else if m.Score == best.Score {
			if best.Wildcard && !m.Wildcard {
				best = m
				tie = false
			} else if best.Wildcard == m.Wildcard {
				tie = true
			}
		}
	}
	return best, tie
}
