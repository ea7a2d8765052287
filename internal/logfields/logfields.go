package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySection    = "section"
	KeyTheme      = "theme"
	KeyPlugin     = "plugin"
	KeyExtension  = "extension"
	KeyCount      = "count"
	KeyURL        = "url"
	KeyListen     = "listen"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Page(p string) slog.Attr          { return slog.String(KeyPage, p) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Theme(name string) slog.Attr      { return slog.String(KeyTheme, name) }
func Plugin(name string) slog.Attr     { return slog.String(KeyPlugin, name) }
func Extension(name string) slog.Attr  { return slog.String(KeyExtension, name) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Listen(addr string) slog.Attr     { return slog.String(KeyListen, addr) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
