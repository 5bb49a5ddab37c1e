package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestHashIPIsStableAndShort(t *testing.T) {
	d := openTest(t)
	h := d.HashIP("203.0.113.7")
	assert.Len(t, h, 16)
	assert.Equal(t, h, d.HashIP("203.0.113.7"))
	assert.NotEqual(t, h, d.HashIP("203.0.113.8"))

	other := openTest(t)
	assert.NotEqual(t, h, other.HashIP("203.0.113.7"), "salt is per database handle")
}

func TestRecordVisitAndStats(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	d.SetClock(func() time.Time { return now.Add(-10 * 24 * time.Hour) })
	require.NoError(t, d.RecordVisit(ctx, "10.0.0.1", "old-agent", "/"))

	d.SetClock(func() time.Time { return now.Add(-3 * 24 * time.Hour) })
	require.NoError(t, d.RecordVisit(ctx, "10.0.0.2", "agent", "/"))

	d.SetClock(func() time.Time { return now })
	require.NoError(t, d.RecordVisit(ctx, "10.0.0.1", "agent", "/"))
	require.NoError(t, d.RecordVisit(ctx, "10.0.0.3", "agent", "/sections/projects"))

	require.NoError(t, d.RecordSectionView(ctx, "s1", "about"))
	require.NoError(t, d.RecordSectionView(ctx, "s1", "about"))
	require.NoError(t, d.RecordSectionView(ctx, "s1", "projects"))
	require.NoError(t, d.RecordSectionView(ctx, "s2", "about"))

	stats, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalVisitors)
	assert.Equal(t, int64(3), stats.UniqueVisitors)
	assert.Equal(t, int64(2), stats.VisitorsToday)
	assert.Equal(t, int64(3), stats.VisitorsThisWeek)
	assert.Equal(t, int64(2), stats.LiveSessions)
	assert.Equal(t, []SectionStat{{"about", 2}, {"projects", 1}}, stats.TopSections)

	require.Len(t, stats.RecentVisitors, 4)
	assert.Equal(t, "/sections/projects", stats.RecentVisitors[0].Path)
	assert.Equal(t, now, stats.RecentVisitors[0].Timestamp)
	for _, v := range stats.RecentVisitors {
		assert.NotContains(t, v.HashedIP, "10.0.0")
	}
}

func TestCleanupRemovesOldRecords(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	d.SetClock(func() time.Time { return now.AddDate(-2, 0, 0) })
	require.NoError(t, d.RecordVisit(ctx, "10.0.0.1", "a", "/"))
	require.NoError(t, d.RecordSectionView(ctx, "old", "about"))

	d.SetClock(func() time.Time { return now })
	require.NoError(t, d.RecordVisit(ctx, "10.0.0.2", "a", "/"))

	removed, err := d.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	visitors, err := d.Visitors(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, visitors, 1)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.db")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.RecordVisit(context.Background(), "127.0.0.1", "ua", "/"))
	stats, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVisitors)
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken()
	require.NoError(t, err)
	b, err := RandomToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
