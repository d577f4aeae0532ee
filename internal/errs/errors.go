package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/videotools/pkg/log"
)

type ErrorType int

const (
	ErrParsing ErrorType = iota
	ErrAPI
	ErrFileNotFound
	ErrFileRead
	ErrFileWrite
	ErrValidation
	ErrConfig
	ErrNetwork
	ErrProcess
	ErrUnknown
)

// Error is the tagged failure carried through a run. Parsing and API are the
// two kinds a translation run surfaces; the rest describe the surrounding plumbing.
type Error struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func New(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func Wrap(err error, errorType ErrorType, message string) *Error {
	e := New(errorType, message)
	e.Cause = err
	return e
}

// ParsingFailed reports malformed input or an unreadable response envelope.
func ParsingFailed(reason string) *Error {
	return New(ErrParsing, reason)
}

// APIError reports a non-success status or a response that breaks the
// numbered-list contract.
func APIError(reason string) *Error {
	return New(ErrAPI, reason)
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrParsing:
		return "ParsingFailed"
	case ErrAPI:
		return "ApiError"
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	case ErrNetwork:
		return "Network"
	case ErrProcess:
		return "Process"
	default:
		return "Unknown"
	}
}

// IsType reports whether any error in err's chain is an *Error of errorType.
func IsType(err error, errorType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// TypeOf returns the type of the first *Error in err's chain, or ErrUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrUnknown
}

type Handler interface {
	Handle(err error) bool
	GetAdvice(err *Error) string
}

type DefaultHandler struct{}

func NewDefaultHandler() Handler {
	return &DefaultHandler{}
}

func (h *DefaultHandler) Handle(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	log.Error("Error Detail: %v\n advice: %s", err, h.GetAdvice(e))
	return true
}

// GetAdvice returns a hint for the user-facing message.
func (h *DefaultHandler) GetAdvice(err *Error) string {
	switch err.Type {
	case ErrParsing:
		return "Please verify the input is a numbered subtitle file (.srt) or a timed-text JSON export with materials.texts"
	case ErrAPI:
		return "Please check the API keys and quota, then retry; the model may also have broken the numbered-list format"
	case ErrFileNotFound:
		return "Please check that the file path is correct and the file exists"
	case ErrFileRead:
		return "Please check file permissions to ensure read access"
	case ErrFileWrite:
		return "Please ensure the output directory exists and is writable"
	case ErrNetwork:
		return "Please check network connectivity to the generation endpoint"
	case ErrValidation:
		return "Please verify the request parameters"
	case ErrConfig:
		return "Please check environment variables or the .env file"
	case ErrProcess:
		return "Please check that yt-dlp is installed and on PATH (or set YTDLP_PATH)"
	default:
		return "Please review the detailed error information"
	}
}

// SafeExecute runs fn and converts a panic into an ErrUnknown error.
func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = New(ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
