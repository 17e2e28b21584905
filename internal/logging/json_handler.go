package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

const jsonTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// newJSONHandler emits one object per line with a UTC millisecond "ts",
// lowercase levels and short "file:line" sources. Empty group and item_id
// attributes from context are dropped.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(jsonTimeFormat))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
				}
			case FieldGroup, FieldItemID:
				if attr.Value.Kind() == slog.KindString && attr.Value.String() == "" {
					return slog.Attr{}
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
