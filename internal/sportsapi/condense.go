package sportsapi

import "encoding/json"

// Condense reduces an odds payload to what the agent needs. It runs two
// passes over a decoded JSON value:
//
//  1. nulls are removed, and so are objects and arrays left empty by that;
//  2. every object carrying both "name" and "odds" whose "profit" equals
//     "odds" collapses to {name, odds, betId}.
//
// A payload with nothing left returns nil. Condense is idempotent and never
// modifies its argument.
func Condense(v any) any {
	return collapse(stripEmpty(v))
}

func stripEmpty(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if c := stripEmpty(child); c != nil {
				out[k] = c
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			if c := stripEmpty(child); c != nil {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

func collapse(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if isSimpleOutcome(t) {
			out := map[string]any{"name": t["name"], "odds": t["odds"]}
			if betID, ok := t["betId"]; ok {
				out["betId"] = betID
			}
			return out
		}
		for k, child := range t {
			t[k] = collapse(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = collapse(child)
		}
		return t
	default:
		return v
	}
}

// isSimpleOutcome reports whether m is an outcome whose profit equals its odds.
func isSimpleOutcome(m map[string]any) bool {
	_, hasName := m["name"]
	odds, hasOdds := m["odds"]
	profit, hasProfit := m["profit"]
	if !hasName || !hasOdds || !hasProfit {
		return false
	}
	return sameNumber(odds, profit)
}

// sameNumber compares two decoded JSON scalars. Numbers are compared by
// value so that 2.5 and 2.50 are equal; strings and bools must match exactly.
func sameNumber(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	if okA != okB {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
