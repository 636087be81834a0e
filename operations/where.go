package operations

import (
	"sort"
	"strings"
)

var phoneFields = map[string]struct{}{
	"mobilephone": {},
	"homephone":   {},
}

var soqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// WherePredicate builds one SOQL predicate. Phone fields match the last ten
// characters as area code, prefix and line number fragments so any stored
// formatting still matches. Values containing % use LIKE verbatim.
func WherePredicate(field string, value string) string {
	if _, ok := phoneFields[strings.ToLower(field)]; ok {
		runes := []rune(value)
		return field + " LIKE '%" +
			escapeSOQL(tailSlice(runes, 10, 7)) + "%" +
			escapeSOQL(tailSlice(runes, 7, 4)) + "%" +
			escapeSOQL(tailSlice(runes, 4, 0)) + "%'"
	}
	if strings.Contains(value, "%") {
		return field + " LIKE '" + escapeSOQL(value) + "'"
	}
	return field + "='" + escapeSOQL(value) + "'"
}

// BuildWhereClause ANDs one predicate per filter in key order.
func BuildWhereClause(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	predicates := make([]string, 0, len(keys))
	for _, key := range keys {
		predicates = append(predicates, WherePredicate(key, filters[key]))
	}
	return strings.Join(predicates, " AND ")
}

func BuildLookupQuery(object string, fields string, filters map[string]string) string {
	return "SELECT " + fields + " FROM " + object + " WHERE " + BuildWhereClause(filters)
}

// tailSlice returns runes[len-from : len-to], clamped to the slice bounds.
// to == 0 means through the end.
func tailSlice(runes []rune, from int, to int) string {
	start := len(runes) - from
	if start < 0 {
		start = 0
	}
	end := len(runes) - to
	if end < 0 {
		end = 0
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

func escapeSOQL(value string) string {
	return soqlEscaper.Replace(value)
}
