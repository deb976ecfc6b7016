package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// Timestamps like [3:05], [00:12:45] or [12:45] at the start of a line.
var timestampRe = regexp.MustCompile(`^\[(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\]\s*(.+)$`)

// transcription extracts the transcript text and a best-effort timeline
// from timestamped lines.
func transcription(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	text := raw.Text
	if t := getString(raw.Payload, "transcript", "text"); t != "" {
		text = t
	}
	if strings.TrimSpace(text) == "" {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: transcription output contains no text")
		return fields
	}

	var (
		plain    []string
		timeline []core.TimelineEntry
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := timestampRe.FindStringSubmatch(line); m != nil {
			timeline = append(timeline, core.TimelineEntry{
				Offset: parseOffset(m[1], m[2], m[3]),
				Text:   m[4],
			})
			plain = append(plain, m[4])
			continue
		}
		plain = append(plain, line)
	}

	fields.Transcript = strings.Join(plain, "\n")
	fields.Timeline = timeline
	return fields
}

func parseOffset(hours, minutes, seconds string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
