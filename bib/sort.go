package bib

import (
	"cmp"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// SortKey orders entries by one field. The pseudo fields "type" and "key"
// order by entry type and key.
type SortKey struct {
	Field string
	Desc  bool
}

func (k SortKey) String() string {
	if k.Desc {
		return "-" + k.Field
	}

	return k.Field
}

// ParseSortKeys parses a comma-separated list of field names, each optionally
// prefixed by '-' for descending order, such as "type,-year,author".
func ParseSortKeys(spec string) ([]SortKey, error) {
	var keys []SortKey

	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)

		var k SortKey
		if rest, ok := strings.CutPrefix(part, "-"); ok {
			k.Desc, part = true, rest
		} else {
			part = strings.TrimPrefix(part, "+")
		}

		if part == "" || strings.IndexFunc(part, func(r rune) bool {
			return r < 0x80 && !isIdentByte(byte(r))
		}) >= 0 {
			return nil, ErrInvalidSortKey.With(slog.String("spec", spec))
		}

		k.Field = foldID(part)
		keys = append(keys, k)
	}

	return keys, nil
}

// sortValue returns the comparable text of a sort key.
func (e *Entry) sortValue(field string) (string, bool) {
	switch field {
	case "type":
		return e.typ, true
	case "key":
		return e.id, true
	}

	v, ok := e.fields[field]
	if !ok {
		return "", false
	}

	return strings.ToLower(v.purified), true
}

// compareValues orders numbers numerically before text, and text by its
// purified lowercase form.
func compareValues(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))

	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}

	return strings.Compare(a, b)
}

// Sort orders entries in place by keys. The sort is stable, and entries
// missing a field sort after the ones that have it regardless of direction.
func Sort(entries []*Entry, keys ...SortKey) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		for _, k := range keys {
			va, okA := a.sortValue(k.Field)
			vb, okB := b.sortValue(k.Field)

			switch {
			case !okA && !okB:
				continue
			case !okA:
				return 1
			case !okB:
				return -1
			}

			c := compareValues(va, vb)
			if k.Desc {
				c = -c
			}

			if c != 0 {
				return c
			}
		}

		return 0
	})
}

// Dedupe drops entries whose purified values of fields equal those of an
// earlier entry. Without fields, entries are compared by key, ignoring case.
func Dedupe(entries []*Entry, fields ...string) []*Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]*Entry, 0, len(entries))

	for _, e := range entries {
		var id string

		if len(fields) == 0 {
			id = strings.ToLower(e.id)
		} else {
			part := make([]string, len(fields))
			for i, f := range fields {
				part[i], _ = e.sortValue(foldID(f))
				part[i] = strings.Join(strings.Fields(part[i]), " ")
			}

			id = strings.Join(part, "\x00")
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, e)
	}

	return out
}
