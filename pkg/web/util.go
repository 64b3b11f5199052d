package web

import "net/http"

// renderStatus writes the default status text for the given code.
func renderStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(code), code)
	}
}
