package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// Validate checks input against s and returns the first violation as a
// field-specific message, or "" when the input is acceptable. Required
// fields are checked first, then present properties in name order.
// Fields not declared in the schema are ignored.
func Validate(s schema.InputSchema, input map[string]any) string {
	for _, name := range s.Required {
		if _, ok := input[name]; !ok {
			return "Missing required field: " + name
		}
	}

	names := make([]string, 0, len(input))
	for name := range input {
		if _, ok := s.Properties[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if msg := validateField(name, input[name], s.Properties[name]); msg != "" {
			return msg
		}
	}
	return ""
}

func validateField(name string, value any, p schema.Property) string {
	switch p.Type {
	case schema.TypeInteger:
		if !isInteger(value) {
			return fmt.Sprintf("Field '%s' must be an integer", name)
		}
	case schema.TypeNumber:
		if _, ok := toFloat(value); !ok {
			return fmt.Sprintf("Field '%s' must be a number", name)
		}
	case schema.TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("Field '%s' must be a string", name)
		}
	case schema.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("Field '%s' must be a boolean", name)
		}
	case schema.TypeArray:
		if !isArray(value) {
			return fmt.Sprintf("Field '%s' must be an array", name)
		}
	}

	if len(p.Enum) > 0 && !enumContains(p.Enum, value) {
		return fmt.Sprintf("Field '%s' must be one of: %s", name, formatEnum(p.Enum))
	}

	if p.Minimum != nil || p.Maximum != nil {
		if f, ok := toFloat(value); ok {
			if p.Minimum != nil && f < *p.Minimum {
				return fmt.Sprintf("Field '%s' must be >= %s", name, formatNumber(*p.Minimum))
			}
			if p.Maximum != nil && f > *p.Maximum {
				return fmt.Sprintf("Field '%s' must be <= %s", name, formatNumber(*p.Maximum))
			}
		}
	}

	if p.Type == schema.TypeString && p.Pattern != "" {
		re, err := compilePattern(p.Pattern)
		if err != nil || !re.MatchString(value.(string)) {
			return fmt.Sprintf("Field '%s' does not match required pattern", name)
		}
	}
	return ""
}

// toFloat accepts every numeric shape a decoded input may carry. Booleans
// are never numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n) == math.Trunc(float64(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	case bool:
		return false
	}
	_, ok := toFloat(v)
	return ok
}

func isArray(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func enumContains(enum []any, v any) bool {
	canEq := v != nil && reflect.TypeOf(v).Comparable()
	for _, e := range enum {
		if canEq && e == v {
			return true
		}
		ef, eok := toFloat(e)
		vf, vok := toFloat(v)
		if eok && vok && ef == vf {
			return true
		}
	}
	return false
}

func formatEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		if s, ok := e.(string); ok {
			parts[i] = "'" + s + "'"
		} else {
			parts[i] = fmt.Sprint(e)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var patternCache sync.Map

// compilePattern anchors the pattern at the start of the value, so a match
// must begin at the first character.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}
