package traceingest

import "regexp"

// redactedPattern is a compiled secret-shaped regex and the replacement
// text substituted for every match: a fixed built-in set, rather than
// the configurable per-source pattern groups a full masking service
// would expose, since span payloads here carry no per-source masking
// config to resolve against.
type redactedPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// builtinRedactions catches the secret shapes most likely to appear in
// span input/output/attribute text captured from LLM request/response
// bodies and tool-call arguments: bearer tokens, AWS access keys, and
// generic "key=value"/"key": "value" secret assignments.
var builtinRedactions = []redactedPattern{
	{
		name:        "bearer_token",
		regex:       regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]{10,}`),
		replacement: "Bearer ***REDACTED***",
	},
	{
		name:        "aws_access_key",
		regex:       regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		replacement: "***REDACTED_AWS_KEY***",
	},
	{
		name:        "secret_assignment",
		regex:       regexp.MustCompile(`(?i)("?(?:api[_-]?key|secret|password|token)"?\s*[:=]\s*")[^"]+(")`),
		replacement: "${1}***REDACTED***${2}",
	},
}

// redactText applies every built-in pattern to s in order. Defensive by
// construction: regexp.Regexp.ReplaceAllString never panics or errors,
// so a span whose payload happens not to match anything passes through
// unchanged.
func redactText(s string) string {
	for _, p := range builtinRedactions {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// redactSpan returns a copy of s with Input, Output and every
// Attributes value passed through redactText, so secrets captured in
// an LLM call's request/response body or tool-call arguments never
// reach a durably persisted Parquet segment. Applied once in the write
// path, after validation and before row conversion.
func redactSpan(s TraceSpan) TraceSpan {
	s.Input = redactText(s.Input)
	s.Output = redactText(s.Output)
	if len(s.Attributes) > 0 {
		redacted := make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			redacted[k] = redactText(v)
		}
		s.Attributes = redacted
	}
	return s
}
