package http

import (
	"net/http"
	"strings"
)

// JSONMuxErrors rewrites the plain-text 404 and 405 replies of a ServeMux
// into the API's `{"error": ...}` bodies. Responses that are already JSON
// pass through untouched.
func JSONMuxErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&muxErrorWriter{ResponseWriter: w}, r)
	})
}

type muxErrorWriter struct {
	http.ResponseWriter
	wroteHeader bool
	replaced    bool
}

func (w *muxErrorWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		switch code {
		case http.StatusMethodNotAllowed:
			w.replaced = true
			MethodNotAllowedError(w.Header().Get("Allow")).Write(w.ResponseWriter)
			return
		case http.StatusNotFound:
			w.replaced = true
			ErrorResponse(http.StatusNotFound, "Not found").Write(w.ResponseWriter)
			return
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *muxErrorWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.replaced {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *muxErrorWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
