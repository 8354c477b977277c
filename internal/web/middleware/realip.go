package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/logging"
)

// proxySet is the parsed TRUSTED_PROXIES list.
type proxySet []netip.Prefix

// parseProxies accepts CIDRs and bare addresses. Bad entries are logged and
// dropped so a typo cannot widen trust.
func parseProxies(entries []string) proxySet {
	var set proxySet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			set = append(set, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			slog.Warn("ignoring trusted proxy entry", "entry", entry, "error", err)
			continue
		}
		addr = addr.Unmap()
		set = append(set, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return set
}

func (s proxySet) contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// resolve picks the client address for a request whose peer is peer.
//
// Forwarding headers are only honoured when the peer is a trusted proxy.
// X-Real-IP wins when valid. Otherwise X-Forwarded-For is walked from the
// right and the first hop that is not itself a trusted proxy is the client,
// so a value injected by the client at the left of the chain is ignored.
func (s proxySet) resolve(peer netip.Addr, h http.Header) netip.Addr {
	if !s.contains(peer) {
		return peer
	}
	if v := strings.TrimSpace(h.Get("X-Real-IP")); v != "" {
		if addr, err := netip.ParseAddr(v); err == nil {
			return addr.Unmap()
		}
		return peer
	}

	hops := strings.Split(strings.Join(h.Values("X-Forwarded-For"), ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = addr.Unmap()
		if !s.contains(client) {
			break
		}
	}
	return client
}

// TrustedRealIP resolves the client address once per request and stores it
// in the context, where the access log, the rate limiter and the import
// service read it. With no trusted proxies configured the connection peer
// is always used.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	proxies := parseProxies(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if peer, ok := peerAddr(r.RemoteAddr); ok {
				ip = proxies.resolve(peer, r.Header).String()
			}

			ctx := core.ContextWithIPAddress(r.Context(), ip)
			ctx = logging.With(ctx, "client_ip", ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// peerAddr parses RemoteAddr, which is host:port from net/http but a bare
// address in tests and behind some listeners.
func peerAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), true
	}
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// ClientIP returns the address resolved by TrustedRealIP, or the peer
// address for requests that did not pass through it.
func ClientIP(r *http.Request) string {
	if ip := core.IPAddressFromContext(r.Context()); ip != "" {
		return ip
	}
	if addr, ok := peerAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return r.RemoteAddr
}
