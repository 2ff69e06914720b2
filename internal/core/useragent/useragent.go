// SPDX-License-Identifier: MIT

// Package useragent holds the string-matching primitives used for platform sniffing.
// All matchers are heuristics over an untrusted header; none of them is authoritative.
package useragent

import "strings"

// IsIOSDevice matches the iOS device tokens (iPad, iPhone, iPod).
// iPadOS in desktop mode reports a Mac agent and is not caught here.
func IsIOSDevice(userAgent string) bool {
	return strings.Contains(userAgent, "iPad") ||
		strings.Contains(userAgent, "iPhone") ||
		strings.Contains(userAgent, "iPod")
}

// IsDesktopMacPlatform reports the desktop Mac platform signature.
func IsDesktopMacPlatform(platform string) bool {
	return strings.TrimSpace(platform) == "MacIntel"
}

// IsSafariBrowser detects the Safari rendering signature.
// Chrome and Android agents also carry "Safari" and are excluded.
func IsSafariBrowser(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	if !strings.Contains(ua, "safari") {
		return false
	}
	return !strings.Contains(ua, "chrome") && !strings.Contains(ua, "android")
}

// IsAndroid detects Android agents.
func IsAndroid(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), "android")
}

// HasAndroidWebViewToken detects the explicit "wv" marker Android WebViews add
// to the platform section, e.g. "(Linux; Android 13; Pixel 7; wv)".
func HasAndroidWebViewToken(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	return strings.Contains(ua, "; wv)") || strings.Contains(ua, " wv)")
}

// ContainsAnyToken reports whether ua contains any of tokens, case-insensitively.
// Empty tokens never match.
func ContainsAnyToken(userAgent string, tokens []string) bool {
	if userAgent == "" || len(tokens) == 0 {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if strings.Contains(ua, tok) {
			return true
		}
	}
	return false
}
