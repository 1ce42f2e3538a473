// Package avatar builds placeholder avatars that depend only on a username.
package avatar

import "net/url"

const baseURL = "https://api.dicebear.com/7.x/avataaars/svg"

// URL returns the fallback avatar for username. The same username always
// yields the same URL.
func URL(username string) string {
	return baseURL + "?seed=" + url.QueryEscape(username)
}
