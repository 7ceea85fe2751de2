// Package sorting builds multi-key comparators over records that expose
// named fields.
package sorting

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/tasksort/internal/models"
)

// Fielder is implemented by records that can be sorted by field name.
// The boolean result is false when the record has no value for name.
type Fielder interface {
	Field(name string) (any, bool)
}

// Key is one parsed sort selector.
type Key struct {
	Field      string
	Descending bool
}

// ParseKeys turns selectors like "-priority" into Keys. Blank selectors are
// dropped.
func ParseKeys(fields []string) []Key {
	keys := make([]Key, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		desc := strings.HasPrefix(f, "-")
		f = strings.TrimPrefix(f, "-")
		if f == "" {
			continue
		}
		keys = append(keys, Key{Field: f, Descending: desc})
	}
	return keys
}

// String renders the key back into selector form.
func (k Key) String() string {
	if k.Descending {
		return "-" + k.Field
	}
	return k.Field
}

// SortBy returns a sorted copy of records ordered by the given selectors.
// The input slice is left untouched. Records that tie on every selector keep
// their input order.
func SortBy[T Fielder](records []T, fields []string) []T {
	out := slices.Clone(records)
	slices.SortStableFunc(out, Comparator[T](ParseKeys(fields)))
	return out
}

// Comparator composes one comparison per key; the first non-zero result wins.
func Comparator[T Fielder](keys []Key) func(a, b T) int {
	return func(a, b T) int {
		for _, k := range keys {
			av, aok := resolve(a, k.Field)
			bv, bok := resolve(b, k.Field)
			if c := MissingLast(aok, bok, func() int { return directed(compareValues(av, bv), k.Descending) }); c != 0 {
				return c
			}
		}
		return 0
	}
}

// MissingLast orders absent values after present ones no matter which
// direction was requested. cmpPresent is only called when both are present.
func MissingLast(aPresent, bPresent bool, cmpPresent func() int) int {
	switch {
	case !aPresent && !bPresent:
		return 0
	case !aPresent:
		return 1
	case !bPresent:
		return -1
	}
	return cmpPresent()
}

func directed(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

// Value reads field from r the way comparisons see it.
func Value(r Fielder, field string) (any, bool) {
	return resolve(r, field)
}

// resolve reads a field and collapses arrays to their first element. An empty
// array counts as missing.
func resolve(r Fielder, field string) (any, bool) {
	v, ok := r.Field(field)
	if !ok || v == nil {
		return nil, false
	}
	switch arr := v.(type) {
	case []string:
		if len(arr) == 0 {
			return nil, false
		}
		return arr[0], true
	case []int:
		if len(arr) == 0 {
			return nil, false
		}
		return arr[0], true
	case []any:
		if len(arr) == 0 {
			return nil, false
		}
		return arr[0], true
	}
	return v, true
}

// typeRank orders paragraph types for sorting: plain content first, then
// tasks by lifecycle with finished work last.
var typeRank = map[models.ParagraphType]int{
	models.TypeText:      0,
	models.TypeList:      1,
	models.TypeOpen:      2,
	models.TypeScheduled: 3,
	models.TypeCancelled: 4,
	models.TypeDone:      5,
	models.TypeTitle:     6,
	models.TypeQuote:     7,
	models.TypeSeparator: 8,
	models.TypeEmpty:     9,
}

func rankOf(t models.ParagraphType) int {
	if r, ok := typeRank[t]; ok {
		return r
	}
	return len(typeRank)
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case models.ParagraphType:
		if bv, ok := b.(models.ParagraphType); ok {
			return cmp.Compare(rankOf(av), rankOf(bv))
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
		}
	case int:
		if bv, ok := b.(int); ok {
			return cmp.Compare(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	// Mixed or unknown types: fall back to their text form.
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}
