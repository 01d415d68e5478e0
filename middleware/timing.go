package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// ProcessTimeHeader carries the handler latency in seconds
const ProcessTimeHeader = "X-Process-Time"

// ProcessTime sets X-Process-Time just before the response header is written
func ProcessTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timingWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		if !tw.wroteHeader {
			tw.stamp()
		}
	})
}

type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timingWriter) stamp() {
	w.wroteHeader = true
	elapsed := time.Since(w.start).Seconds()
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', 6, 64))
}

func (w *timingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.stamp()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.stamp()
	}
	return w.ResponseWriter.Write(b)
}
