package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupLatestByGAC_KeepsLatest(t *testing.T) {
	m := NewMemberships()
	m.AddGAC("rac-a", "gac-1")
	m.AddGAC("rac-b", "gac-1")

	older := row("e1", "s1", "p1", "rac-a", 2)
	newer := row("e2", "s1", "p1", "rac-b", 5)
	newer.UpdatedAt = baseTime.Add(time.Hour)

	entries := DedupLatestByGAC(Input{Rows: []Row{newer, older}, Memberships: m}, Filter{})
	require.Len(t, entries, 1)
	assert.Equal(t, "e2", entries[0].Row.EvaluationID)
	assert.Equal(t, "gac-1", entries[0].GACID)
}

func TestDedupLatestByGAC_TieBreaksOnHigherID(t *testing.T) {
	m := NewMemberships()
	m.AddGAC("rac-a", "gac-1")
	m.AddGAC("rac-b", "gac-1")

	a := row("0001", "s1", "p1", "rac-a", 2)
	b := row("0002", "s1", "p1", "rac-b", 4)

	for _, rows := range [][]Row{{a, b}, {b, a}} {
		entries := DedupLatestByGAC(Input{Rows: rows, Memberships: m}, Filter{})
		require.Len(t, entries, 1)
		assert.Equal(t, "0002", entries[0].Row.EvaluationID)
	}
}

func TestDedupLatestByGAC_DistinctKeysAndFanOut(t *testing.T) {
	m := NewMemberships()
	m.AddGAC("rac-a", "gac-1")
	m.AddGAC("rac-a", "gac-2")

	entries := DedupLatestByGAC(Input{
		Rows: []Row{
			row("e1", "s1", "p1", "rac-a", 3),
			row("e2", "s1", "p2", "rac-a", 4), // 不同教师是不同键
			row("e3", "s2", "p1", "rac-a", 5),
		},
		Memberships: m,
	}, Filter{})

	// 3 行 × 2 个 GAC，键均不同
	assert.Len(t, entries, 6)
}

func TestUniqueSummary(t *testing.T) {
	m := NewMemberships()
	m.AddGAC("rac-a", "gac-1")
	m.AddGAC("rac-b", "gac-1")

	latest := row("e2", "s1", "p1", "rac-b", 4)
	latest.UpdatedAt = baseTime.Add(time.Minute)

	s := UniqueSummary(Input{
		Rows:        []Row{row("e1", "s1", "p1", "rac-a", 1), latest},
		Memberships: m,
	}, Filter{})

	assert.Equal(t, 1, s.Total)
	assert.InDelta(t, 4.0, s.Average, 1e-9)
	assert.Equal(t, 1, s.PassCount)

	assert.Equal(t, 0, UniqueSummary(Input{}, Filter{}).Total)
}
