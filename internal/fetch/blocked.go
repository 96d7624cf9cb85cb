package fetch

import (
	"bytes"
	"net/http"
	"strings"
)

// detectBlock inspects a fetch result for bot-protection challenge pages.
// A blocked page parses fine as HTML but carries no product data, so the
// extractor must treat it as a failed retrieval rather than a thin offer.
func detectBlock(res *Result) {
	if res == nil || res.Error != "" {
		return
	}
	for _, d := range []func(*Result) (bool, string){
		blockedByCloudflare,
		blockedByAkamai,
		blockedByDataDome,
		blockedByPerimeterX,
	} {
		if blocked, src := d(res); blocked {
			res.Blocked = true
			res.BlockedBy = src
			return
		}
	}
}

func header(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	lowerKey := strings.ToLower(key)
	for k, vals := range headers {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func blockedByCloudflare(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusServiceUnavailable {
		if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "cloudflare") {
			return true, "Cloudflare"
		}
		if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
			bytes.Contains(res.Body, []byte("cf-turnstile")) ||
			bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func blockedByAkamai(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "akamai") {
			return true, "Akamai"
		}
		if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
			return true, "Akamai"
		}
	}
	return false, ""
}

func blockedByDataDome(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if header(res.Headers, "X-DataDome") != "" || header(res.Headers, "X-DataDome-Response") != "" {
			return true, "DataDome"
		}
		if bytes.Contains(res.Body, []byte("geo.captcha-delivery.com")) {
			return true, "DataDome"
		}
	}
	return false, ""
}

func blockedByPerimeterX(res *Result) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if header(res.Headers, "X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}
		if bytes.Contains(res.Body, []byte("client.perimeterx.net")) ||
			bytes.Contains(res.Body, []byte("px-captcha")) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
