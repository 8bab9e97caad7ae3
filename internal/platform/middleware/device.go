package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"attestry/pkg/requestcontext"
)

// ClientMetadata binds the client IP and a parsed User-Agent summary into the
// request context so downstream event emission can record where an operation
// came from without re-parsing headers.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(),
			clientIP(r),
			summarizeUserAgent(r.UserAgent()),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// summarizeUserAgent reduces a raw User-Agent to "browser/version (os)" or the
// bot name. Raw UA strings are long and high-cardinality; the summary is what
// gets attached to events.
func summarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot:" + name
	}
	name, version := ua.Browser()
	if name == "" {
		// Non-browser clients (curl, SDKs): keep the first token only.
		if i := strings.IndexByte(raw, ' '); i > 0 {
			return raw[:i]
		}
		return raw
	}
	summary := name + "/" + version
	if os := ua.OS(); os != "" {
		summary += " (" + os + ")"
	}
	return summary
}
