package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	common_models "bulk-webhook/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pairOperators maps the [op, value] filter form onto field__op operators
var pairOperators = map[string]string{
	"=":       "eq",
	"!=":      "ne",
	">":       "gt",
	"<":       "lt",
	">=":      "gte",
	"<=":      "lte",
	"in":      "in",
	"not in":  "nin",
	"like":    "like",
	"between": "between",
}

var suffixOperators = map[string]bool{
	"eq": true, "ne": true, "gt": true, "lt": true, "gte": true, "lte": true,
	"in": true, "nin": true, "contains": true, "starts_with": true, "ends_with": true,
	"like": true, "between": true,
}

// ParseFilters turns a filter mapping into conditions. Keys may carry an
// operator suffix ("amount__gte") and values may be [op, value] pairs.
// Output is sorted by field so compiled queries are stable.
func ParseFilters(filters map[string]any) []common_models.Filter {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]common_models.Filter, 0, len(keys))
	for _, k := range keys {
		v := filters[k]
		field, operator := k, "eq"
		if idx := strings.LastIndex(k, "__"); idx > 0 && suffixOperators[k[idx+2:]] {
			field, operator = k[:idx], k[idx+2:]
		} else if pair := toSlice(v); len(pair) == 2 {
			if op, ok := pair[0].(string); ok {
				if mapped, ok := pairOperators[strings.ToLower(op)]; ok {
					operator, v = mapped, pair[1]
				}
			}
		}
		out = append(out, common_models.Filter{Field: field, Operator: operator, Value: v})
	}
	return out
}

// BuildQuery compiles a filter mapping into a mongo query document
func BuildQuery(filters map[string]any) (bson.M, error) {
	query := bson.M{}
	var and []bson.M

	for _, f := range ParseFilters(filters) {
		if IsEmptyValue(f.Value) {
			continue
		}
		cond, err := compileCondition(f)
		if err != nil {
			return nil, err
		}

		existing, ok := query[f.Field]
		if !ok {
			query[f.Field] = cond
			continue
		}
		prev, prevIsOp := existing.(bson.M)
		next, nextIsOp := cond.(bson.M)
		if prevIsOp && nextIsOp && !overlaps(prev, next) {
			for op, val := range next {
				prev[op] = val
			}
			continue
		}
		and = append(and, bson.M{f.Field: cond})
	}

	if len(and) > 0 {
		query["$and"] = and
	}
	return query, nil
}

func compileCondition(f common_models.Filter) (any, error) {
	switch f.Operator {
	case "eq":
		return f.Value, nil
	case "ne":
		return bson.M{"$ne": f.Value}, nil
	case "gt", "lt", "gte", "lte":
		return bson.M{"$" + f.Operator: f.Value}, nil
	case "in", "nin":
		list := toSlice(f.Value)
		if list == nil {
			list = []any{f.Value}
		}
		return bson.M{"$" + f.Operator: list}, nil
	case "contains":
		return bson.M{"$regex": regexp.QuoteMeta(fmt.Sprint(f.Value)), "$options": "i"}, nil
	case "starts_with":
		return bson.M{"$regex": "^" + regexp.QuoteMeta(fmt.Sprint(f.Value)), "$options": "i"}, nil
	case "ends_with":
		return bson.M{"$regex": regexp.QuoteMeta(fmt.Sprint(f.Value)) + "$", "$options": "i"}, nil
	case "like":
		return bson.M{"$regex": likeToRegex(fmt.Sprint(f.Value)), "$options": "i"}, nil
	case "between":
		bounds := toSlice(f.Value)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("filter %s: between needs two values", f.Field)
		}
		return bson.M{"$gte": bounds[0], "$lte": bounds[1]}, nil
	default:
		return nil, fmt.Errorf("filter %s: unsupported operator %q", f.Field, f.Operator)
	}
}

// likeToRegex converts a SQL LIKE pattern into an anchored regex
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func overlaps(a, b bson.M) bool {
	for k := range b {
		if _, ok := a[k]; ok {
			return true
		}
	}
	return false
}

func toSlice(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case primitive.A:
		return []any(val)
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	}
	return nil
}
