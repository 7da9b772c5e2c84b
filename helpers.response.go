package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Response messages of the books endpoints.
const (
	MsgBooksFound      = "Books found successfully."
	MsgNoBooksFound    = "No books found."
	MsgBookFound       = "Book found successfully."
	MsgBookCreated     = "Book created successfully."
	MsgBookUpdated     = "Book updated successfully."
	MsgBookDeleted     = "Book deleted successfully."
	MsgBookNotFound    = "Book not found."
	MsgServerError     = "Server error."
	MsgInvalidBody     = "Invalid request body."
	MsgRouteNotFound   = "Requested resource does not exist."
	MsgMethodNotAllow  = "Method not allowed on this resource."
	MsgMaintenanceMode = "Service currently unavailable."
)

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size.
type CustomResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		code:           http.StatusOK,
	}
}

// WriteHeader implements http.ResponseWriter interface.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.ResponseWriter interface.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}
	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIResponse is the uniform envelope of every books endpoint response.
// Data is omitted on errors and on deletion.
type APIResponse struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewAPIError builds a failure envelope.
func NewAPIError(message string) *APIResponse {
	return &APIResponse{Error: true, Message: message}
}

// GenericResponse builds a success envelope.
func GenericResponse(message string, data interface{}) *APIResponse {
	return &APIResponse{Message: message, Data: data}
}

// WriteResponse sends the envelope with the given status code. In case the
// client closed the request it records the Nginx non standard status 499
// (Client Closed Request), and 504 if the request processing timed out.
// In both cases the timeout handler already answered the client.
func WriteResponse(ctx context.Context, w http.ResponseWriter, status int, resp *APIResponse) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return fmt.Errorf("response not sent: %w", err)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(resp)
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}
