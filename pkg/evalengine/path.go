// Package evalengine implements the LLM evaluation workflow engine: a DAG
// of assertion and LLM-judge tasks evaluated against a context record,
// producing per-task and per-record results.
package evalengine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var pathTokenRE = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)|(\[\d+\])`)

// pathToken is either a Key (object dereference) or an Index (array
// dereference by position).
type pathToken struct {
	key      string
	index    int
	isIndex  bool
}

// parsePath tokenizes a field path per the grammar
// [A-Za-z_][A-Za-z0-9_]*|\[\d+\]. An empty path is an error.
func parsePath(path string) ([]pathToken, error) {
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}

	var tokens []pathToken
	rest := path
	for len(rest) > 0 {
		loc := pathTokenRE.FindStringIndex(rest)
		if loc == nil || loc[0] != 0 {
			return nil, fmt.Errorf("invalid field path segment at %q", rest)
		}
		tok := rest[loc[0]:loc[1]]
		if strings.HasPrefix(tok, "[") {
			n, err := strconv.Atoi(tok[1 : len(tok)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid array index token %q: %w", tok, err)
			}
			tokens = append(tokens, pathToken{index: n, isIndex: true})
		} else {
			tokens = append(tokens, pathToken{key: tok})
		}
		rest = rest[loc[1]:]
		if len(rest) > 0 && rest[0] == '.' {
			rest = rest[1:]
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty field path")
	}
	return tokens, nil
}

// ExtractPath walks ctx following the dotted/indexed path grammar and
// returns the value found there. A missing field or out-of-range index is
// a task-level error (never a panic, never a workflow error).
func ExtractPath(ctx map[string]any, path string) (any, error) {
	tokens, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	var cur any = ctx
	for _, tok := range tokens {
		if tok.isIndex {
			arr, ok := cur.([]any)
			if !ok {
				return nil, fmt.Errorf("cannot index into non-array value")
			}
			if tok.index < 0 || tok.index >= len(arr) {
				return nil, fmt.Errorf("array index %d out of range (len %d)", tok.index, len(arr))
			}
			cur = arr[tok.index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot dereference key %q on non-object value", tok.key)
		}
		v, ok := obj[tok.key]
		if !ok {
			return nil, fmt.Errorf("missing field %q", tok.key)
		}
		cur = v
	}
	return cur, nil
}

// templateRE matches a whole-string "${some.path}" expected-value template.
var templateRE = regexp.MustCompile(`^\$\{(.+)\}$`)

// ResolveExpected resolves an expected_value that is a "${path}" template
// against the same context, enabling cross-field comparisons. Non-template
// values are returned unchanged.
func ResolveExpected(ctx map[string]any, expected any) (any, error) {
	s, ok := expected.(string)
	if !ok {
		return expected, nil
	}
	m := templateRE.FindStringSubmatch(s)
	if m == nil {
		return expected, nil
	}
	return ExtractPath(ctx, m[1])
}

// RenderTemplate substitutes every "${path}" occurrence within a prompt
// string (not just a whole-string match) against ctx, used to render an
// LLMJudge task's prompt. A path that fails to resolve is substituted with
// an empty string and the failure is reported to the caller.
func RenderTemplate(ctx map[string]any, prompt string) (string, []error) {
	var errs []error
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	out := re.ReplaceAllStringFunc(prompt, func(m string) string {
		path := re.FindStringSubmatch(m)[1]
		v, err := ExtractPath(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("template path %q: %w", path, err))
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
	return out, errs
}
