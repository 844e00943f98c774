package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/money"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFillDays_ZeroFillsWindow(t *testing.T) {
	end := time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)
	totals := map[string]decimal.Decimal{
		"2026-10-13": amt("20.00"),
		"2026-10-01": amt("99.00"), // outside the window
	}

	dates, amounts := FillDays(end, 3, totals)
	require.Len(t, dates, 3)
	require.Len(t, amounts, 3)

	assert.Equal(t, "2026-10-12", DayKey(dates[0]))
	assert.Equal(t, "2026-10-13", DayKey(dates[1]))
	assert.Equal(t, "2026-10-14", DayKey(dates[2]))

	got := []string{money.Format(amounts[0]), money.Format(amounts[1]), money.Format(amounts[2])}
	assert.Equal(t, []string{"0.00", "20.00", "0.00"}, got)
	assert.Equal(t, "20.00", money.Format(Total(amounts)))
}

func TestFillDays_ConsecutiveAcrossMonthAndYear(t *testing.T) {
	end := time.Date(2027, 1, 2, 0, 0, 1, 0, time.UTC)
	dates, amounts := FillDays(end, 7, nil)
	require.Len(t, dates, 7)
	require.Len(t, amounts, 7)

	assert.Equal(t, "2026-12-27", DayKey(dates[0]))
	assert.Equal(t, "2027-01-02", DayKey(dates[6]))
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i], "dates must advance by one calendar day")
	}
	for _, a := range amounts {
		assert.Equal(t, "0.00", money.Format(a))
	}
}

func TestFillDays_SingleDayAndInvalid(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dates, amounts := FillDays(end, 1, map[string]decimal.Decimal{"2026-03-01": amt("1.5")})
	require.Len(t, dates, 1)
	assert.Equal(t, "1.50", money.Format(amounts[0]))

	dates, amounts = FillDays(end, 0, nil)
	assert.Nil(t, dates)
	assert.Nil(t, amounts)

	dates, amounts = FillDays(end, MaxDays+1, nil)
	assert.Nil(t, dates)
	assert.Nil(t, amounts)

	dates, _ = FillDays(end, MaxDays, nil)
	require.Len(t, dates, MaxDays)
	assert.Equal(t, "2026-03-01", DayKey(dates[MaxDays-1]))
}

func TestWindowStart(t *testing.T) {
	end := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), WindowStart(end, 7))
}

func TestChartFileName(t *testing.T) {
	assert.Equal(t, "expenses_alice_7d.svg", ChartFileName("alice", 7))
	assert.Equal(t, "expenses_bob_smith_30d.svg", ChartFileName(" Bob Smith ", 30))
	assert.Equal(t, "expenses_a_b_1d.svg", ChartFileName("a/b", 1))
	assert.Equal(t, "expenses_user_7d.svg", ChartFileName("", 7))
	assert.Equal(t, ChartFileName("alice", 7), ChartFileName("alice", 7))
}

func TestRenderChart(t *testing.T) {
	end := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	dates, amounts := FillDays(end, 3, map[string]decimal.Decimal{"2026-10-13": amt("20.00")})

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, "Tom & Jerry <3", dates, amounts))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Tom &amp; Jerry &lt;3")
	assert.Contains(t, out, "<polyline")
	assert.Contains(t, out, "Oct 13: 20.00")
	assert.Contains(t, out, ">20.00</text>")
}

func TestRenderChart_AllZero(t *testing.T) {
	end := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	dates, amounts := FillDays(end, 1, nil)

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, "empty", dates, amounts))
	assert.Contains(t, buf.String(), "Oct 14: 0.00")
}

func TestRenderChart_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderChart(&buf, "x", nil, nil))
	assert.Error(t, RenderChart(&buf, "x", []time.Time{time.Now()}, nil))
}

func TestWriteChartFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	end := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	dates, amounts := FillDays(end, 7, map[string]decimal.Decimal{"2026-10-10": amt("12.50")})

	path, err := WriteChartFile(dir, "alice", dates, amounts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "expenses_alice_7d.svg"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "total 12.50")
}
