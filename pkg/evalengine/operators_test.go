package evalengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateComparisonOperators(t *testing.T) {
	cases := []struct {
		op       Operator
		actual   any
		expected any
		want     bool
	}{
		{OpEquals, "a", "a", true},
		{OpEquals, 1.0, 2.0, false},
		{OpNotEqual, "a", "b", true},
		{OpGreaterThan, 5.0, 3.0, true},
		{OpGreaterThanOrEqual, 3.0, 3.0, true},
		{OpLessThan, 2.0, 3.0, true},
		{OpLessThanOrEqual, 3.0, 3.0, true},
		{OpContains, "hello world", "world", true},
		{OpNotContains, "hello world", "xyz", true},
		{OpStartsWith, "hello", "he", true},
		{OpEndsWith, "hello", "lo", true},
		{OpContainsAll, []any{"a", "b", "c"}, []any{"a", "b"}, true},
		{OpContainsAll, []any{"a", "b"}, []any{"a", "c"}, false},
		{OpContainsAny, []any{"a", "b"}, []any{"z", "b"}, true},
		{OpContainsNone, []any{"a", "b"}, []any{"z", "y"}, true},
		{OpMatches, "hello123", `^[a-z]+\d+$`, true},
		{OpContainsWord, "the quick fox", "quick", true},
		{OpHasLengthEqual, "hello", 5.0, true},
		{OpHasLengthGreaterThan, []any{"a", "b"}, 1.0, true},
		{OpIsNumeric, 3.2, nil, true},
		{OpIsString, "x", nil, true},
		{OpIsBoolean, true, nil, true},
		{OpIsNull, nil, nil, true},
		{OpIsArray, []any{1.0}, nil, true},
		{OpIsArray, "hello", nil, false},
		{OpIsObject, map[string]any{"a": 1.0}, nil, true},
		{OpIsEmail, "a@b.com", nil, true},
		{OpIsEmail, "not-an-email", nil, false},
		{OpIsUrl, "https://example.com/path", nil, true},
		{OpIsUuid, "123e4567-e89b-12d3-a456-426614174000", nil, true},
		{OpIsIso8601, "2024-01-01T00:00:00Z", nil, true},
		{OpIsJson, `{"a":1}`, nil, true},
		{OpIsJson, `not json`, nil, false},
		{OpInRange, 5.0, []any{1.0, 10.0}, true},
		{OpNotInRange, 15.0, []any{1.0, 10.0}, true},
		{OpIsPositive, 1.0, nil, true},
		{OpIsNegative, -1.0, nil, true},
		{OpIsZero, 0.0, nil, true},
		{OpSequenceMatches, []any{1.0, 2.0}, []any{1.0, 2.0}, true},
		{OpHasUniqueItems, []any{"a", "b", "c"}, nil, true},
		{OpHasUniqueItems, []any{"a", "a"}, nil, false},
		{OpIsEmpty, "", nil, true},
		{OpIsNotEmpty, "x", nil, true},
		{OpIsAlphabetic, "hello", nil, true},
		{OpIsAlphabetic, "hello1", nil, false},
		{OpIsAlphanumeric, "hello1", nil, true},
		{OpIsLowerCase, "hello", nil, true},
		{OpIsUpperCase, "HELLO", nil, true},
		{OpApproximatelyEquals, 10.1, []any{10.0, 0.2}, true},
		{OpApproximatelyEquals, 10.5, []any{10.0, 0.2}, false},
	}

	for _, c := range cases {
		c := c
		t.Run(string(c.op), func(t *testing.T) {
			got, msg := Evaluate(c.op, c.actual, c.expected)
			assert.Equal(t, c.want, got, "message: %s", msg)
		})
	}
}

func TestEvaluateNeverFailsWorkflow(t *testing.T) {
	// Wrong types never return a Go error, only passed=false with a message.
	passed, msg := Evaluate(OpGreaterThan, "not a number", 5.0)
	assert.False(t, passed)
	assert.NotEmpty(t, msg)

	passed, msg = Evaluate(OpHasLengthEqual, 3.0, 5.0)
	assert.False(t, passed)
	assert.NotEmpty(t, msg)
}

func TestEvaluateUnknownOperator(t *testing.T) {
	passed, msg := Evaluate(Operator("DoesNotExist"), "x", "y")
	assert.False(t, passed)
	assert.Contains(t, msg, "unknown operator")
}
