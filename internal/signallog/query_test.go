package signallog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

func entryIDs(entries []signals.Entry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestFilter_KeepsFoldOfHiddenEvents(t *testing.T) {
	entries := signals.Recompute(DemoLogs()[101])

	opts := DefaultQueryOptions()
	opts.EventTypes = []types.EventType{types.EventFamilyBreakdown}
	got := Filter(entries, opts)

	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 5, got[0].CumulativeImpact())
	assert.Equal(t, types.RiskRed, got[0].RiskScoreAfter())
}

func TestFilter_DateWindowAndOrder(t *testing.T) {
	entries := signals.Recompute(DemoLogs()[101])

	since := types.MustDate("2023-02-01")
	until := types.MustDate("2023-12-31")
	got := Filter(entries, QueryOptions{Since: &since, Until: &until, Order: OrderDesc})
	assert.Equal(t, []int{3, 2}, entryIDs(got))

	exact := types.MustDate("2023-01-15")
	got = Filter(entries, QueryOptions{Since: &exact, Until: &exact})
	assert.Equal(t, []int{1}, entryIDs(got), "window bounds are inclusive")
}

func TestFilter_Limit(t *testing.T) {
	entries := signals.Recompute(DemoLogs()[101])

	got := Filter(entries, QueryOptions{Order: OrderDesc, Limit: 1})
	assert.Equal(t, []int{3}, entryIDs(got))

	got = Filter(entries, QueryOptions{Limit: 0})
	assert.Len(t, got, 3)
}

func TestParseQuery(t *testing.T) {
	q := url.Values{}
	q.Set("order", "DESC")
	q.Set("since", "2023-01-01")
	q.Set("event_types", "arrest, job_loss")
	q.Set("limit", "20")

	opts, err := ParseQuery(q)
	require.NoError(t, err)
	assert.Equal(t, OrderDesc, opts.Order)
	require.NotNil(t, opts.Since)
	assert.Equal(t, "2023-01-01", opts.Since.String())
	assert.Nil(t, opts.Until)
	assert.Equal(t, []types.EventType{types.EventArrest, types.EventJobLoss}, opts.EventTypes)
	assert.Equal(t, 20, opts.Limit)
}

func TestParseQuery_Defaults(t *testing.T) {
	opts, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, DefaultQueryOptions(), opts)
}

func TestParseQuery_Invalid(t *testing.T) {
	tests := map[string]url.Values{
		"order":      {"order": {"sideways"}},
		"since":      {"since": {"15/01/2023"}},
		"until":      {"until": {"yesterday"}},
		"event type": {"event_types": {"arrest,alien_abduction"}},
		"limit":      {"limit": {"ten"}},
		"neg limit":  {"limit": {"-1"}},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuery(q)
			assert.Error(t, err)
		})
	}
}
