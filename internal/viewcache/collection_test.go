package viewcache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID   int64
	Name string
	Size int
	Year *int
}

func newTestCollection() *Collection[testItem] {
	return New(
		func(item testItem) int64 { return item.ID },
		map[string]Comparator[testItem]{
			"name": StringField(func(item testItem) string { return item.Name }),
			"size": NumberField(func(item testItem) int { return item.Size }),
			"year": NullableNumberField(func(item testItem) *int { return item.Year }),
		},
	)
}

func TestMergePageDeduplicatesByID(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.MergePage([]testItem{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, 2)
	c.MergePage([]testItem{{ID: 2, Name: "b"}, {ID: 3, Name: "c"}}, 4)

	full := c.Full()
	require.Len(t, full, 3)
	assert.Equal(t, 4, c.Offset())
}

func TestStaleAfterTTL(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	assert.True(t, c.Stale(), "an empty cache is always stale")

	current := time.Now()
	c.now = func() time.Time { return current }
	c.MergePage([]testItem{{ID: 1, Name: "a"}}, 1)
	assert.False(t, c.Stale())

	current = current.Add(DefaultTTL + time.Second)
	assert.True(t, c.Stale())
}

func TestSetSortDescendingIsExactReverseOfAscending(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.Replace([]testItem{
		{ID: 1, Name: "beta", Size: 10},
		{ID: 2, Name: "Alpha", Size: 30},
		{ID: 3, Name: "gamma", Size: 20},
	}, 3)

	ascending := c.SetSort("name", Ascending)
	descending := c.SetSort("name", Descending)

	require.Len(t, ascending, 3)
	require.Len(t, descending, 3)
	for i := range ascending {
		assert.Equal(t, ascending[i].ID, descending[len(descending)-1-i].ID)
	}

	assert.Equal(t, "Alpha", ascending[0].Name, "string sort must ignore case")
}

func TestSetSortIgnoresUnknownField(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.Replace([]testItem{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}, 2)
	c.SetSort("name", Ascending)

	before := c.Displayed()
	after := c.SetSort("bogus", Ascending)
	assert.Equal(t, before, after)
}

func TestNullableSortOrdersMissingValuesLast(t *testing.T) {
	t.Parallel()

	early := 1999
	late := 2024

	c := newTestCollection()
	c.Replace([]testItem{
		{ID: 1, Name: "no-year"},
		{ID: 2, Name: "late", Year: &late},
		{ID: 3, Name: "early", Year: &early},
	}, 3)

	sorted := c.SetSort("year", Ascending)
	require.Len(t, sorted, 3)
	assert.Equal(t, int64(3), sorted[0].ID)
	assert.Equal(t, int64(2), sorted[1].ID)
	assert.Equal(t, int64(1), sorted[2].ID, "items without a year sort last")
}

func TestSearchPrefersServerResults(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.Replace([]testItem{
		{ID: 1, Name: "local match"},
		{ID: 2, Name: "other"},
	}, 2)

	serverResults := []testItem{{ID: 9, Name: "server match"}}
	displayed := c.Search("match", serverResults, func(item testItem, lowered string) bool {
		return strings.Contains(strings.ToLower(item.Name), lowered)
	})

	require.Len(t, displayed, 1)
	assert.Equal(t, int64(9), displayed[0].ID)
	assert.Equal(t, "match", c.Query())
}

func TestSearchFallsBackToCachedSet(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.Replace([]testItem{
		{ID: 1, Name: "Golden Hour"},
		{ID: 2, Name: "Silver Lining"},
	}, 2)

	displayed := c.Search("golden", nil, func(item testItem, lowered string) bool {
		return strings.Contains(strings.ToLower(item.Name), lowered)
	})

	require.Len(t, displayed, 1)
	assert.Equal(t, int64(1), displayed[0].ID)
}

func TestSearchClearedByEmptyQuery(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.Replace([]testItem{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, 2)

	c.Search("a", []testItem{{ID: 1, Name: "a"}}, nil)
	require.Len(t, c.Displayed(), 1)

	displayed := c.Search("   ", nil, nil)
	assert.Len(t, displayed, 2)
	assert.Empty(t, c.Query())
}

func TestInvalidateDropsEverything(t *testing.T) {
	t.Parallel()

	c := newTestCollection()
	c.Replace([]testItem{{ID: 1, Name: "a"}}, 1)
	c.Search("a", []testItem{{ID: 1, Name: "a"}}, nil)

	c.Invalidate()

	assert.Empty(t, c.Full())
	assert.Empty(t, c.Displayed())
	assert.Zero(t, c.Offset())
	assert.Empty(t, c.Query())
	assert.True(t, c.Stale())
}
