package middleware

import (
	"net"
	"net/http"

	"github.com/mssola/useragent"

	"medledger/pkg/requestcontext"
)

// ClientMetadata captures the remote address and parsed User-Agent so audit
// events on sensitive reads can record which platform performed them.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ip = host
		}
		ctx = requestcontext.WithClientIP(ctx, ip)

		if rawUA := r.Header.Get("User-Agent"); rawUA != "" {
			ua := useragent.New(rawUA)
			browser, _ := ua.Browser()
			ctx = requestcontext.WithClientDevice(ctx, requestcontext.Device{
				Browser: browser,
				OS:      ua.OS(),
			})
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
