package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timecard/internal/core"
)

func sampleReport() core.MonthReport {
	loc := time.UTC
	end1 := time.Date(2024, 3, 15, 10, 30, 0, 0, loc)
	end2 := time.Date(2024, 3, 16, 9, 25, 0, 0, loc)
	return core.MonthReport{
		Month: "2024-03",
		Sessions: []core.Session{
			{ID: "a", ActivityID: "2", StartAt: end1.Add(-90 * time.Minute), EndAt: &end1, HourlyWage: 1200, Paid: true},
			{ID: "b", ActivityID: "gone", StartAt: end2.Add(-25 * time.Minute), EndAt: &end2, HourlyWage: 1000},
			{ID: "c", ActivityID: "1", StartAt: time.Date(2024, 3, 17, 8, 0, 0, 0, loc), HourlyWage: 1000},
		},
	}
}

func names(locale core.Locale) func(string) string {
	known := map[string]string{}
	for _, a := range locale.Seeds() {
		known[a.ID] = a.Name
	}
	return func(id string) string {
		if n, ok := known[id]; ok {
			return n
		}
		return locale.UnknownActivity
	}
}

func TestWriteEnglish(t *testing.T) {
	rows := Rows(sampleReport(), names(core.English), time.UTC)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, English))

	want := "\ufeff" +
		"date,activity,start,end,duration(min),hourly wage,amount,payment status\n" +
		"2024/03/15,shopping,09:00,10:30,90,1200,1800,paid\n" +
		"2024/03/16,unknown,09:00,09:25,25,1000,417,unpaid\n" +
		"2024/03/17,cleaning,08:00,-,0,1000,0,unpaid\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, "timecard_2024-03.csv", Filename("2024-03", English))
}

func TestWriteJapanese(t *testing.T) {
	labels := LabelsFor(core.Japanese)
	rows := Rows(sampleReport(), names(core.Japanese), time.UTC)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, labels))

	lines := strings.Split(strings.TrimPrefix(buf.String(), "\ufeff"), "\n")
	assert.Equal(t, "日付,作業内容,開始,終了,時間(分),時給,金額(円),支払状態", lines[0])
	assert.Equal(t, "2024/03/15,買い物,09:00,10:30,90,1200,1800,済", lines[1])
	assert.Equal(t, "2024/03/16,不明,09:00,09:25,25,1000,417,未", lines[2])
	assert.Equal(t, "勤怠集計_2024-03.csv", Filename("2024-03", labels))
}

func TestRowsUseLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	rows := Rows(sampleReport(), names(core.English), tokyo)
	assert.Equal(t, "18:00", rows[0].Start)
	assert.Equal(t, "19:30", rows[0].End)
}

func TestRoundTrip(t *testing.T) {
	for _, labels := range []Labels{English, Japanese} {
		rows := Rows(sampleReport(), names(core.English), time.UTC)
		rows[0].Activity = `comma, "quoted" name`

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, rows, labels))
		got, err := Parse(&buf, labels)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	}
}

func TestParseRejectsForeignFiles(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b,c,d,e,f,g,h\n"), English)
	require.ErrorIs(t, err, ErrBadHeader)

	bad := "date,activity,start,end,duration(min),hourly wage,amount,payment status\n" +
		"2024/03/15,x,09:00,10:00,60,1000,1000,maybe\n"
	_, err = Parse(strings.NewReader(bad), English)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maybe")
}
