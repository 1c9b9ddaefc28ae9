package progress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFFmpegProgressParserNoDurationNeverReports(t *testing.T) {
	p := NewFFmpegProgressParser()
	var got []float64
	p.ConsumeLine(`frame=  100 fps=25 time=00:00:04.00 bitrate=100kbits/s`, func(f float64) { got = append(got, f) })
	require.Empty(t, got)
	require.Equal(t, NoDuration, p.State())
}

func TestFFmpegProgressParserTracksFraction(t *testing.T) {
	p := NewFFmpegProgressParser()
	var got []float64
	p.ConsumeLine(`  Duration: 00:00:10.00, start: 0.000000, bitrate: 100 kb/s`, func(f float64) { got = append(got, f) })
	require.Equal(t, HasDuration, p.State())

	p.ConsumeLine(`frame=  125 fps= 25 q=28.0 size=     256kB time=00:00:05.00 bitrate= 419.4kbits/s`, func(f float64) { got = append(got, f) })
	require.Equal(t, Progressing, p.State())
	require.Len(t, got, 1)
	require.InDelta(t, 0.5, got[0], 0.001)

	p.ConsumeLine(`frame=  250 fps= 25 q=28.0 size=     512kB time=00:00:10.00 bitrate= 419.4kbits/s`, func(f float64) { got = append(got, f) })
	require.Len(t, got, 2)
	require.InDelta(t, 1.0, got[1], 0.001)
}

func TestFFmpegProgressParserConsumeReader(t *testing.T) {
	output := "Duration: 00:00:20.00, start: 0.000000, bitrate: 1000 kb/s\n" +
		"frame=100 time=00:00:10.00 bitrate=1000kbits/s\n" +
		"frame=200 time=00:00:20.00 bitrate=1000kbits/s\n"
	p := NewFFmpegProgressParser()
	var last float64
	p.Consume(strings.NewReader(output), func(f float64) { last = f })
	require.InDelta(t, 1.0, last, 0.001)
}
