package evalengine

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Operator is the closed set of ~40 comparison operators this engine
// supports.
type Operator string

const (
	OpEquals    Operator = "Equals"
	OpNotEqual  Operator = "NotEqual"

	OpGreaterThan        Operator = "GreaterThan"
	OpGreaterThanOrEqual Operator = "GreaterThanOrEqual"
	OpLessThan           Operator = "LessThan"
	OpLessThanOrEqual    Operator = "LessThanOrEqual"

	OpContains      Operator = "Contains"
	OpNotContains   Operator = "NotContains"
	OpStartsWith    Operator = "StartsWith"
	OpEndsWith      Operator = "EndsWith"
	OpContainsAll   Operator = "ContainsAll"
	OpContainsAny   Operator = "ContainsAny"
	OpContainsNone  Operator = "ContainsNone"

	OpMatches      Operator = "Matches"
	OpMatchesRegex Operator = "MatchesRegex"
	OpContainsWord Operator = "ContainsWord"

	OpHasLengthEqual              Operator = "HasLengthEqual"
	OpHasLengthGreaterThan        Operator = "HasLengthGreaterThan"
	OpHasLengthLessThan           Operator = "HasLengthLessThan"
	OpHasLengthGreaterThanOrEqual Operator = "HasLengthGreaterThanOrEqual"
	OpHasLengthLessThanOrEqual    Operator = "HasLengthLessThanOrEqual"

	OpIsNumeric Operator = "IsNumeric"
	OpIsString  Operator = "IsString"
	OpIsBoolean Operator = "IsBoolean"
	OpIsNull    Operator = "IsNull"
	OpIsArray   Operator = "IsArray"
	OpIsObject  Operator = "IsObject"

	OpIsEmail   Operator = "IsEmail"
	OpIsUrl     Operator = "IsUrl"
	OpIsUuid    Operator = "IsUuid"
	OpIsIso8601 Operator = "IsIso8601"
	OpIsJson    Operator = "IsJson"

	OpInRange    Operator = "InRange"
	OpNotInRange Operator = "NotInRange"
	OpIsPositive Operator = "IsPositive"
	OpIsNegative Operator = "IsNegative"
	OpIsZero     Operator = "IsZero"

	OpSequenceMatches Operator = "SequenceMatches"
	OpHasUniqueItems  Operator = "HasUniqueItems"
	OpIsEmpty         Operator = "IsEmpty"
	OpIsNotEmpty      Operator = "IsNotEmpty"

	OpIsAlphabetic  Operator = "IsAlphabetic"
	OpIsAlphanumeric Operator = "IsAlphanumeric"
	OpIsLowerCase   Operator = "IsLowerCase"
	OpIsUpperCase   Operator = "IsUpperCase"

	OpApproximatelyEquals Operator = "ApproximatelyEquals"
)

// lengthOperators is the set of operators that transform actual into an
// integer length before comparing.
var lengthOperators = map[Operator]bool{
	OpHasLengthEqual: true, OpHasLengthGreaterThan: true, OpHasLengthLessThan: true,
	OpHasLengthGreaterThanOrEqual: true, OpHasLengthLessThanOrEqual: true,
}

// Evaluate applies op to (actual, expected) and reports pass/fail plus an
// explanatory message. It never returns a Go error for a comparison
// mismatch: comparison errors convert to passed=false with a message,
// never fail the workflow.
func Evaluate(op Operator, actual, expected any) (passed bool, message string) {
	if lengthOperators[op] {
		n, err := lengthOf(actual)
		if err != nil {
			return false, err.Error()
		}
		actual = n
	}

	switch op {
	case OpEquals:
		return deepEqual(actual, expected), compareMsg(op, actual, expected)
	case OpNotEqual:
		return !deepEqual(actual, expected), compareMsg(op, actual, expected)

	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		if !aok || !eok {
			return false, fmt.Sprintf("%s requires numeric operands, got %T and %T", op, actual, expected)
		}
		switch op {
		case OpGreaterThan:
			return a > e, compareMsg(op, actual, expected)
		case OpGreaterThanOrEqual:
			return a >= e, compareMsg(op, actual, expected)
		case OpLessThan:
			return a < e, compareMsg(op, actual, expected)
		default:
			return a <= e, compareMsg(op, actual, expected)
		}

	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		as, aok := actual.(string)
		es, eok := expected.(string)
		if !aok || !eok {
			return false, fmt.Sprintf("%s requires string operands", op)
		}
		var ok bool
		switch op {
		case OpContains:
			ok = strings.Contains(as, es)
		case OpNotContains:
			ok = !strings.Contains(as, es)
		case OpStartsWith:
			ok = strings.HasPrefix(as, es)
		case OpEndsWith:
			ok = strings.HasSuffix(as, es)
		}
		return ok, compareMsg(op, actual, expected)

	case OpContainsAll, OpContainsAny, OpContainsNone:
		actualList, err := toAnySlice(actual)
		if err != nil {
			return false, err.Error()
		}
		wantList, err := toAnySlice(expected)
		if err != nil {
			return false, err.Error()
		}
		switch op {
		case OpContainsAll:
			for _, w := range wantList {
				if !sliceContains(actualList, w) {
					return false, fmt.Sprintf("missing %v", w)
				}
			}
			return true, ""
		case OpContainsAny:
			for _, w := range wantList {
				if sliceContains(actualList, w) {
					return true, ""
				}
			}
			return false, "none of the expected values present"
		default: // ContainsNone
			for _, w := range wantList {
				if sliceContains(actualList, w) {
					return false, fmt.Sprintf("unexpected value present: %v", w)
				}
			}
			return true, ""
		}

	case OpMatches, OpMatchesRegex:
		as, aok := actual.(string)
		pattern, eok := expected.(string)
		if !aok || !eok {
			return false, fmt.Sprintf("%s requires string operands", op)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Sprintf("invalid regex %q: %v", pattern, err)
		}
		return re.MatchString(as), compareMsg(op, actual, expected)

	case OpContainsWord:
		as, aok := actual.(string)
		word, eok := expected.(string)
		if !aok || !eok {
			return false, fmt.Sprintf("%s requires string operands", op)
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
		if err != nil {
			return false, err.Error()
		}
		return re.MatchString(as), compareMsg(op, actual, expected)

	case OpHasLengthEqual, OpHasLengthGreaterThan, OpHasLengthLessThan,
		OpHasLengthGreaterThanOrEqual, OpHasLengthLessThanOrEqual:
		n, aok := toFloat(actual)
		e, eok := toFloat(expected)
		if !aok || !eok {
			return false, fmt.Sprintf("%s requires numeric operands", op)
		}
		switch op {
		case OpHasLengthEqual:
			return n == e, compareMsg(op, actual, expected)
		case OpHasLengthGreaterThan:
			return n > e, compareMsg(op, actual, expected)
		case OpHasLengthLessThan:
			return n < e, compareMsg(op, actual, expected)
		case OpHasLengthGreaterThanOrEqual:
			return n >= e, compareMsg(op, actual, expected)
		default:
			return n <= e, compareMsg(op, actual, expected)
		}

	case OpIsNumeric:
		_, ok := toFloat(actual)
		return ok, typeMsg(op, actual)
	case OpIsString:
		_, ok := actual.(string)
		return ok, typeMsg(op, actual)
	case OpIsBoolean:
		_, ok := actual.(bool)
		return ok, typeMsg(op, actual)
	case OpIsNull:
		return actual == nil, typeMsg(op, actual)
	case OpIsArray:
		_, ok := actual.([]any)
		return ok, typeMsg(op, actual)
	case OpIsObject:
		_, ok := actual.(map[string]any)
		return ok, typeMsg(op, actual)

	case OpIsEmail:
		s, ok := actual.(string)
		if !ok {
			return false, typeMsg(op, actual)
		}
		_, err := mail.ParseAddress(s)
		return err == nil, typeMsg(op, actual)
	case OpIsUrl:
		s, ok := actual.(string)
		if !ok {
			return false, typeMsg(op, actual)
		}
		u, err := url.ParseRequestURI(s)
		return err == nil && u.Scheme != "" && u.Host != "", typeMsg(op, actual)
	case OpIsUuid:
		s, ok := actual.(string)
		if !ok {
			return false, typeMsg(op, actual)
		}
		_, err := uuid.Parse(s)
		return err == nil, typeMsg(op, actual)
	case OpIsIso8601:
		s, ok := actual.(string)
		if !ok {
			return false, typeMsg(op, actual)
		}
		_, err := time.Parse(time.RFC3339, s)
		return err == nil, typeMsg(op, actual)
	case OpIsJson:
		s, ok := actual.(string)
		if !ok {
			return false, typeMsg(op, actual)
		}
		return isValidJSON(s), typeMsg(op, actual)

	case OpInRange, OpNotInRange:
		a, aok := toFloat(actual)
		bounds, err := toAnySlice(expected)
		if !aok || err != nil || len(bounds) != 2 {
			return false, fmt.Sprintf("%s requires numeric actual and a 2-element expected range", op)
		}
		lo, lok := toFloat(bounds[0])
		hi, hok := toFloat(bounds[1])
		if !lok || !hok {
			return false, fmt.Sprintf("%s range bounds must be numeric", op)
		}
		inRange := a >= lo && a <= hi
		if op == OpInRange {
			return inRange, ""
		}
		return !inRange, ""
	case OpIsPositive:
		a, ok := toFloat(actual)
		return ok && a > 0, typeMsg(op, actual)
	case OpIsNegative:
		a, ok := toFloat(actual)
		return ok && a < 0, typeMsg(op, actual)
	case OpIsZero:
		a, ok := toFloat(actual)
		return ok && a == 0, typeMsg(op, actual)

	case OpSequenceMatches:
		actualList, err := toAnySlice(actual)
		if err != nil {
			return false, err.Error()
		}
		wantList, err := toAnySlice(expected)
		if err != nil {
			return false, err.Error()
		}
		if len(actualList) != len(wantList) {
			return false, fmt.Sprintf("length mismatch: %d vs %d", len(actualList), len(wantList))
		}
		for i := range actualList {
			if !deepEqual(actualList[i], wantList[i]) {
				return false, fmt.Sprintf("mismatch at index %d", i)
			}
		}
		return true, ""
	case OpHasUniqueItems:
		list, err := toAnySlice(actual)
		if err != nil {
			return false, err.Error()
		}
		seen := make(map[string]bool, len(list))
		for _, v := range list {
			key := fmt.Sprintf("%v", v)
			if seen[key] {
				return false, fmt.Sprintf("duplicate value %v", v)
			}
			seen[key] = true
		}
		return true, ""
	case OpIsEmpty, OpIsNotEmpty:
		empty, err := isEmptyValue(actual)
		if err != nil {
			return false, err.Error()
		}
		if op == OpIsEmpty {
			return empty, ""
		}
		return !empty, ""

	case OpIsAlphabetic, OpIsAlphanumeric:
		s, ok := actual.(string)
		if !ok || s == "" {
			return false, typeMsg(op, actual)
		}
		for _, r := range s {
			if op == OpIsAlphabetic && !unicode.IsLetter(r) {
				return false, typeMsg(op, actual)
			}
			if op == OpIsAlphanumeric && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false, typeMsg(op, actual)
			}
		}
		return true, ""
	case OpIsLowerCase, OpIsUpperCase:
		s, ok := actual.(string)
		if !ok {
			return false, typeMsg(op, actual)
		}
		hasAlpha := false
		for _, r := range s {
			if unicode.IsLetter(r) {
				hasAlpha = true
				if op == OpIsLowerCase && !unicode.IsLower(r) {
					return false, typeMsg(op, actual)
				}
				if op == OpIsUpperCase && !unicode.IsUpper(r) {
					return false, typeMsg(op, actual)
				}
			}
		}
		return hasAlpha, typeMsg(op, actual)

	case OpApproximatelyEquals:
		a, aok := toFloat(actual)
		bounds, err := toAnySlice(expected)
		if !aok || err != nil || len(bounds) != 2 {
			return false, fmt.Sprintf("%s requires numeric actual and a [target, tolerance] expected", op)
		}
		target, tok := toFloat(bounds[0])
		tolerance, tolok := toFloat(bounds[1])
		if !tok || !tolok {
			return false, fmt.Sprintf("%s target/tolerance must be numeric", op)
		}
		return math.Abs(a-target) <= tolerance, compareMsg(op, actual, expected)
	}

	return false, fmt.Sprintf("unknown operator %q", op)
}

func compareMsg(op Operator, actual, expected any) string {
	return fmt.Sprintf("%s: actual=%v expected=%v", op, actual, expected)
}

func typeMsg(op Operator, actual any) string {
	return fmt.Sprintf("%s: actual=%v (%T)", op, actual, actual)
}

func deepEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toAnySlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case string:
		out := make([]any, len(s))
		for i, r := range []rune(s) {
			out[i] = string(r)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a collection", v)
	}
}

func sliceContains(list []any, want any) bool {
	for _, v := range list {
		if deepEqual(v, want) {
			return true
		}
	}
	return false
}

func lengthOf(v any) (float64, error) {
	switch s := v.(type) {
	case string:
		return float64(len([]rune(s))), nil
	case []any:
		return float64(len(s)), nil
	case map[string]any:
		return float64(len(s)), nil
	default:
		return 0, fmt.Errorf("HasLength* requires a string, array, or object, got %T", v)
	}
}

func isEmptyValue(v any) (bool, error) {
	switch s := v.(type) {
	case nil:
		return true, nil
	case string:
		return s == "", nil
	case []any:
		return len(s) == 0, nil
	case map[string]any:
		return len(s) == 0, nil
	default:
		return false, fmt.Errorf("IsEmpty/IsNotEmpty requires a string, array, or object, got %T", v)
	}
}

func isValidJSON(s string) bool {
	return json.Valid([]byte(strings.TrimSpace(s)))
}
