package renet

import "strings"

// upgradeImageURL rewrites an http:// scheme to https://; nothing else changes.
func upgradeImageURL(href string) string {
	href = strings.TrimSpace(href)
	if len(href) >= 7 && strings.EqualFold(href[:7], "http://") {
		return "https://" + href[7:]
	}
	return href
}
