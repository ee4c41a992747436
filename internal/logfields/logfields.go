package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeySource     = "source"
	KeyOutput     = "output"
	KeyIdentifier = "identifier"
	KeyCitationID = "citation_id"
	KeyCitations  = "citations"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }
func Source(s string) slog.Attr { return slog.String(KeySource, s) }
func Output(p string) slog.Attr { return slog.String(KeyOutput, p) }
func Identifier(id string) slog.Attr { return slog.String(KeyIdentifier, id) }
func CitationID(n int) slog.Attr { return slog.Int(KeyCitationID, n) }
func Citations(n int) slog.Attr { return slog.Int(KeyCitations, n) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
