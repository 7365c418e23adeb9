package signallog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

// Order is the display order of a timeline.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// MaxLimit caps the number of entries a single query returns.
const MaxLimit = 500

// QueryOptions controls filtering and ordering of a recomputed timeline.
type QueryOptions struct {
	Since      *types.Date       // inclusive
	Until      *types.Date       // inclusive
	EventTypes []types.EventType // empty means all
	Limit      int               // 0 means no limit, capped at MaxLimit
	Order      Order             // default: asc
}

// DefaultQueryOptions returns the whole timeline, oldest first.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Order: OrderAsc}
}

// ParseQuery reads options from URL query parameters:
// order, since, until, event_types (comma separated) and limit.
func ParseQuery(q url.Values) (QueryOptions, error) {
	opts := DefaultQueryOptions()

	switch o := Order(strings.ToLower(q.Get("order"))); o {
	case "":
	case OrderAsc, OrderDesc:
		opts.Order = o
	default:
		return opts, fmt.Errorf("invalid order %q", o)
	}

	for _, p := range []struct {
		name string
		dst  **types.Date
	}{
		{"since", &opts.Since},
		{"until", &opts.Until},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := types.ParseDate(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid %s: %w", p.name, err)
		}
		*p.dst = &d
	}

	if raw := q.Get("event_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			et := types.EventType(strings.TrimSpace(part))
			if !et.IsValid() {
				return opts, fmt.Errorf("unknown event type %q", et)
			}
			opts.EventTypes = append(opts.EventTypes, et)
		}
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid limit %q", raw)
		}
		opts.Limit = n
	}

	return opts, nil
}

// Filter selects and orders entries that have already been recomputed.
// Filtering happens after the fold, so hidden events still count towards
// the cumulative impact of the entries shown.
func Filter(entries []signals.Entry, opts QueryOptions) []signals.Entry {
	out := make([]signals.Entry, 0, len(entries))
	for _, e := range entries {
		if opts.Since != nil && e.Date.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.Date.After(*opts.Until) {
			continue
		}
		if len(opts.EventTypes) > 0 && !containsType(opts.EventTypes, e.EventType) {
			continue
		}
		out = append(out, e)
	}

	if opts.Order == OrderDesc {
		out = signals.Reverse(out)
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func containsType(list []types.EventType, et types.EventType) bool {
	for _, t := range list {
		if t == et {
			return true
		}
	}
	return false
}
