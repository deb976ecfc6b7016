package extract

import (
	"fmt"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// acquisition pulls media metadata out of the downloader's payload.
// Downloaders disagree on nesting ("meta", "metadata", "video") and on
// field names, so every lookup tries the known aliases.
func acquisition(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	m := raw.Payload
	if sub := getMap(m, "meta", "metadata", "video", "media"); sub != nil {
		m = sub
	}
	if len(m) == 0 {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: acquisition output carries no structured metadata")
		return fields
	}

	meta := &core.MediaMeta{
		Title:    getString(m, "title", "name"),
		Author:   getString(m, "author", "uploader", "channel", "creator"),
		Platform: getString(m, "platform", "source", "site"),
		Language: getString(m, "language", "lang"),
	}
	if views, ok := getInt(m, "views", "view_count"); ok {
		meta.Views = views
	}
	if ts := getString(m, "published_at", "upload_date", "published"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			meta.PublishedAt = t
		} else {
			fields.Warnings = append(fields.Warnings,
				fmt.Sprintf("parse_warning: unparseable publish timestamp %q", ts))
		}
	}
	if secs, ok := getFloat(m, "duration", "duration_seconds", "length"); ok && secs > 0 {
		meta.Duration = time.Duration(secs * float64(time.Second))
	}

	if *meta == (core.MediaMeta{}) {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: acquisition metadata had no recognizable fields")
		return fields
	}

	fields.Media = meta
	return fields
}
