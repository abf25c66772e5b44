// internal/app/features/errors/errlog.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs zap logging with user-facing error pages so handlers can
// report a failure in one call.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs the error with request context and renders the server
// error page. logMsg is for operators; userMsg is what the browser shows.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	RenderServerError(w, r, userMsg, backURL)
}

// LogBadRequest logs a malformed request at warn level and renders the server
// error page with a 400 status.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	RenderBadRequest(w, r, userMsg, backURL)
}
