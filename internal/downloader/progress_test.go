package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressParser(t *testing.T) {
	parser := NewProgressParser()

	tests := []struct {
		line   string
		want   Event
		wantOK bool
	}{
		{
			line:   "[download]  45.3% of ~ 120.50MiB at  2.31MiB/s ETA 00:31 (frag 3/10)",
			want:   Event{Kind: EventProgress, Fraction: 0.453, Size: "120.50MiB", Speed: "2.31MiB/s", ETA: "00:31"},
			wantOK: true,
		},
		{
			line:   "[download]   7.0% of 1.20GiB at 500.00KiB/s ETA 40:01",
			want:   Event{Kind: EventProgress, Fraction: 0.07, Size: "1.20GiB", Speed: "500.00KiB/s", ETA: "40:01"},
			wantOK: true,
		},
		{
			line:   "[download] 100% of   10.00MiB in 00:00:10 at 1.00MiB/s",
			want:   Event{Kind: EventProgress, Fraction: 1},
			wantOK: true,
		},
		{
			line:   `[Merger] Merging formats into "/tmp/out/My Video.mp4"`,
			want:   Event{Kind: EventMerging, Path: "/tmp/out/My Video.mp4"},
			wantOK: true,
		},
		{
			line:   "[ExtractAudio] Destination: /tmp/out/song.mp3",
			want:   Event{Kind: EventDestination, Path: "/tmp/out/song.mp3"},
			wantOK: true,
		},
		{
			line:   "[download] /tmp/out/song.mp3 has already been downloaded",
			want:   Event{Kind: EventDestination, Path: "/tmp/out/song.mp3"},
			wantOK: true,
		},
		{line: "[youtube] abc: Downloading webpage"},
		{line: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parser.Parse(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.InDelta(t, tt.want.Fraction, got.Fraction, 1e-9)
			assert.Equal(t, tt.want.Size, got.Size)
			assert.Equal(t, tt.want.Speed, got.Speed)
			assert.Equal(t, tt.want.ETA, got.ETA)
			assert.Equal(t, tt.want.Path, got.Path)
		})
	}
}
