package port

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMicroClockCounts(t *testing.T) {
	base := time.Unix(100, 0)
	now := base
	c := newMicroClock(func() time.Time { return now })
	require.Zero(t, c.Read())
	require.Zero(t, c.Epoch())

	now = base.Add(70_000 * time.Microsecond)
	require.Equal(t, uint16(70_000-65_536), c.Read())
	require.Equal(t, uint32(1), c.Epoch())
	require.Equal(t, uint32(65_536), c.Overflow())
}
