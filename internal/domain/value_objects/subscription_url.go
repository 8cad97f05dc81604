package valueobjects

import (
	"net"
	"net/netip"
	"net/url"
	"strings"

	apperrors "taskflow/internal/shared_kernel/errors"
)

// SubscriptionURL is a canonicalized absolute http(s) endpoint that receives deliveries.
type SubscriptionURL struct {
	value string
	host  string
}

func (u SubscriptionURL) String() string {
	return u.value
}

func (u SubscriptionURL) Host() string {
	return u.host
}

func NewSubscriptionURL(raw string) (SubscriptionURL, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SubscriptionURL{}, invalidURL("url is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || !parsed.IsAbs() || strings.TrimSpace(parsed.Host) == "" {
		return SubscriptionURL{}, invalidURL("url must be a valid absolute URL")
	}
	if parsed.User != nil {
		return SubscriptionURL{}, invalidURL("url must not contain user info")
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return SubscriptionURL{}, invalidURL("url must use http or https")
	}

	host := normalizeHost(parsed.Hostname())
	if host == "" {
		return SubscriptionURL{}, invalidURL("url host is required")
	}

	canonicalHost := host
	if port := parsed.Port(); port != "" {
		canonicalHost = net.JoinHostPort(host, port)
	}

	parsed.Scheme = scheme
	parsed.Host = canonicalHost
	parsed.Fragment = ""

	return SubscriptionURL{value: parsed.String(), host: host}, nil
}

// HostAllowlist restricts subscription hosts. Entries are exact hosts or "*.suffix"
// wildcards; a wildcard never matches the bare suffix. An empty list denies every host
// unless allowAnyHost is set. IP literals in loopback, private, link-local, unspecified
// or multicast ranges are only accepted when listed exactly.
type HostAllowlist struct {
	exact        map[string]struct{}
	suffixes     []string
	allowAnyHost bool
}

func NewHostAllowlist(patterns []string, allowAnyHost bool) (HostAllowlist, *apperrors.AppError) {
	allowlist := HostAllowlist{exact: map[string]struct{}{}, allowAnyHost: allowAnyHost}
	for _, raw := range patterns {
		pattern := normalizeHost(raw)
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, "://") || strings.ContainsAny(pattern, "/?# ") {
			return HostAllowlist{}, apperrors.NewValidation(
				"invalid_host_pattern",
				"host pattern must be a bare host or *.suffix",
				map[string]any{"pattern": raw},
			)
		}

		if suffix, isWildcard := strings.CutPrefix(pattern, "*."); isWildcard {
			if suffix == "" || strings.Contains(suffix, "*") {
				return HostAllowlist{}, apperrors.NewValidation(
					"invalid_host_pattern",
					"host wildcard pattern is invalid",
					map[string]any{"pattern": raw},
				)
			}
			allowlist.suffixes = append(allowlist.suffixes, "."+suffix)
			continue
		}
		if strings.Contains(pattern, "*") {
			return HostAllowlist{}, apperrors.NewValidation(
				"invalid_host_pattern",
				"host wildcard pattern is invalid",
				map[string]any{"pattern": raw},
			)
		}
		allowlist.exact[pattern] = struct{}{}
	}
	return allowlist, nil
}

func (a HostAllowlist) Empty() bool {
	return len(a.exact) == 0 && len(a.suffixes) == 0
}

func (a HostAllowlist) Allows(host string) bool {
	normalized := normalizeHost(host)
	if normalized == "" {
		return false
	}
	if _, ok := a.exact[normalized]; ok {
		return true
	}
	if IsInternalHost(normalized) {
		return false
	}
	if a.allowAnyHost {
		return true
	}
	for _, suffix := range a.suffixes {
		if strings.HasSuffix(normalized, suffix) && len(normalized) > len(suffix) {
			return true
		}
	}
	return false
}

// IsInternalHost reports localhost names and IP literals that address the local host or
// a private network.
func IsInternalHost(host string) bool {
	normalized := strings.Trim(normalizeHost(host), "[]")
	if normalized == "localhost" || strings.HasSuffix(normalized, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(normalized)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified()
}

func normalizeHost(raw string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
}

func invalidURL(message string) *apperrors.AppError {
	return apperrors.NewValidation("invalid_request", message, map[string]any{"field": "url"})
}
