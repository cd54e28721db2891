package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
)

// Download names and content types for each format.
const (
	TextFileName = "transcricao.txt"
	SRTFileName  = "transcricao.srt"
	DocxFileName = "transcricao.docx"

	TextContentType = "text/plain; charset=utf-8"
	SRTContentType  = "application/x-subrip; charset=utf-8"
	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Text returns the transcript text exactly as produced.
func Text(t domain.Transcript) []byte {
	return []byte(t.Text)
}

// SRT renders segments as SubRip cues. A transcript without segments becomes
// a single cue at the start.
func SRT(t domain.Transcript) []byte {
	segments := t.Segments
	if len(segments) == 0 && strings.TrimSpace(t.Text) != "" {
		segments = []domain.Segment{{Text: strings.TrimSpace(t.Text)}}
	}

	var b strings.Builder
	for i, seg := range segments {
		end := seg.End
		if end < seg.Start {
			end = seg.Start
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(seg.Start), srtTimestamp(end), strings.TrimSpace(seg.Text))
	}
	return []byte(b.String())
}

// srtTimestamp formats d as HH:MM:SS,mmm.
func srtTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}

// Stamp formats d as [mm:ss], growing to [h:mm:ss] past one hour.
func Stamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	if secs >= 3600 {
		return fmt.Sprintf("[%d:%02d:%02d]", secs/3600, secs/60%60, secs%60)
	}
	return fmt.Sprintf("[%02d:%02d]", secs/60, secs%60)
}
