package transport

import (
	"net/http"
	"strings"
)

// requestToken picks the API token for a request. A token in the body wins;
// otherwise the Authorization header is used, with or without the Bearer
// prefix.
func requestToken(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	auth := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
