package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidBody   = errors.New("invalid request body")
	ErrInvalidBookID = errors.New("book id provided is not valid")
)

type (
	ContextKey        string
	missingFieldError string
)

const (
	RequestIDPrefix         string     = "r"
	RequestIDHeader         string     = "X-Request-ID"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	LoggerContextKey        ContextKey = "request.logger"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// invalidFieldError reports a present field whose value cannot be stored.
type invalidFieldError struct {
	field  string
	reason string
}

func (e invalidFieldError) Error() string {
	return e.field + " " + e.reason
}

// IsValidationError tells whether err comes from the payload validation.
func IsValidationError(err error) bool {
	var mfe missingFieldError
	var ife invalidFieldError
	return errors.As(err, &mfe) || errors.As(err, &ife)
}

// payloadValidator reports fields by their json names.
var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// DecodeBookRequestBody is a helper function to read the content of a book creation or update request.
func DecodeBookRequestBody(r *http.Request, payload *BookPayload) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrInvalidBody
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}

// ValidateBookPayload checks that all four fields are present and that the
// publish date is a calendar date. It reports the first failing field.
func ValidateBookPayload(payload *BookPayload) error {
	err := payloadValidator.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return missingFieldError(fe.Field())
	case "datetime":
		return invalidFieldError{field: fe.Field(), reason: "must be a date formatted as YYYY-MM-DD"}
	}
	return invalidFieldError{field: fe.Field(), reason: "is not valid"}
}

// ParseBookID converts the path identifier into a book id.
// Only positive base-10 integers are accepted.
func ParseBookID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidBookID
	}
	return id, nil
}

// GetBookFilterFromRequest reads the optional search criteria.
func GetBookFilterFromRequest(r *http.Request) BookFilter {
	q := r.URL.Query()
	return BookFilter{
		Title:     q.Get("title"),
		Author:    q.Get("author"),
		Publisher: q.Get("publisher"),
	}
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
