package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tweetsched/internal/schedule"
	"github.com/hpungsan/tweetsched/internal/sheet"
)

// TestFullWorkflow exercises a week of scheduling:
// header → scan (fresh) → schedule → scan (resumed) → schedule across rows → scan
func TestFullWorkflow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// 1. Header
	header, err := EnsureHeader(ctx, env)
	require.NoError(t, err)
	require.True(t, header.Created)

	// 2. Scan an empty sheet
	scan, err := Scan(ctx, env)
	require.NoError(t, err)
	require.Equal(t, schedule.StatusFresh, scan.Status)
	require.Equal(t, 2, scan.NextRow)

	// 3. Schedule two posts
	out, err := Schedule(ctx, env, ScheduleInput{Posts: []string{"mon 1", "mon 2"}})
	require.NoError(t, err)
	require.False(t, out.HeaderCreated)
	require.Equal(t, 2, out.PostsScheduled)

	// 4. Scan resumes mid-row
	scan, err = Scan(ctx, env)
	require.NoError(t, err)
	require.Equal(t, schedule.StatusResumed, scan.Status)
	require.Equal(t, 2, scan.NextRow)
	require.Equal(t, 2, scan.NextSlot)

	// 5. Eleven more posts: finish row 2, fill row 3, start row 4
	var batch []string
	for i := 0; i < 11; i++ {
		batch = append(batch, "post")
	}
	out, err = Schedule(ctx, env, ScheduleInput{Posts: batch})
	require.NoError(t, err)
	require.Len(t, out.Rows, 3)
	require.Equal(t, []int{2, 3, 4}, out.Rows[0].Slots)
	require.Equal(t, "16/02/2025", out.Rows[1].Date)
	require.Equal(t, "Monday", out.Rows[2].Weekday)
	require.Equal(t, []int{0, 1, 2}, out.Rows[2].Slots)

	// 6. Rows are stored in order under the header
	rows, err := env.Store.ReadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, sheet.Header(), rows[0])
	require.Equal(t, "mon 1", sheet.Cell(rows[1], sheet.ContentIndex(0)))
	require.Equal(t, "17/02/2025", sheet.Cell(rows[3], 0))

	// 7. Scan points after the last post
	scan, err = Scan(ctx, env)
	require.NoError(t, err)
	require.Equal(t, 4, scan.NextRow)
	require.Equal(t, 3, scan.NextSlot)
	require.Equal(t, "S", scan.NextColumn)
}
