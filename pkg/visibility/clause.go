package visibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// Compare applies condition to the dependency value and the clause value.
//
// When both sides parse as finite float64 values the comparison is numeric;
// NaN and infinities compare as text. Otherwise
// equals/notEquals compare text and greaterThan/lessThan compare lexically.
// An empty dependency never satisfies greaterThan or lessThan. Unknown
// conditions report true.
func Compare(condition schema.Condition, dependency state.Value, want any) bool {
	got := dependency.Text()
	target := canonical(want)

	gotNum, gotErr := parseNumber(got)
	wantNum, wantErr := parseNumber(target)
	numeric := gotErr == nil && wantErr == nil

	switch condition {
	case schema.ConditionEquals:
		if numeric {
			return gotNum == wantNum
		}
		return got == target
	case schema.ConditionNotEquals:
		if numeric {
			return gotNum != wantNum
		}
		return got != target
	case schema.ConditionGreaterThan:
		if dependency.IsEmpty() {
			return false
		}
		if numeric {
			return gotNum > wantNum
		}
		return got > target
	case schema.ConditionLessThan:
		if dependency.IsEmpty() {
			return false
		}
		if numeric {
			return gotNum < wantNum
		}
		return got < target
	default:
		return true
	}
}

// ClauseVisible evaluates a dependsOn/condition/value clause. A nil clause is
// visible.
func ClauseVisible(clause *schema.Visibility, values state.Values) bool {
	if clause == nil {
		return true
	}
	return Compare(clause.Condition, values.Get(clause.DependsOn), clause.Value)
}

// canonical renders clause values decoded from JSON or YAML as text.
func canonical(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	case []any, []string:
		return state.FromAny(typed).Text()
	default:
		return fmt.Sprint(typed)
	}
}

func parseNumber(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
