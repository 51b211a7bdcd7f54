package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
)

type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if errors.As(err, &te) {
		te.ErrStack = append(te.ErrStack, getCallerFile(err))
		return te
	}

	newTe := newTrackError(err)
	newTe.ErrStack = append(newTe.ErrStack, getCallerFile(err))
	return newTe
}

func newTrackError(err error) *TrackerError {
	return &TrackerError{
		Context:  make(map[string]any),
		ErrStack: make([]slog.Attr, 0),
		cause:    err,
	}
}

func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

// GetError логирует проглоченную ошибку вместе с контекстом и трассой вызовов.
func GetError(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	var trackerError *TrackerError
	var attrs []any

	if errors.As(err, &trackerError) {
		trackerError.traceOut(logger)
		attrs = trackerError.getAttrs()
	}
	attrs = append(attrs, slog.String("raw_error", err.Error()))

	logger.With(attrs...).Warn("stack error")
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

func (te *TrackerError) getAttrs() []any {
	res := make([]any, 0, len(te.Context))
	for _, k := range slices.Sorted(maps.Keys(te.Context)) {
		res = append(res, slog.Any(k, te.Context[k]))
	}
	return res
}

func (te *TrackerError) traceOut(logger *slog.Logger) {
	for _, attr := range te.ErrStack {
		logger.Debug("trace:", attr)
	}
}

func getCallerFile(err error) slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	return slog.String("trace", fmt.Sprintf("%s:%d %s", file, no, err.Error()))
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.ErrStack = append(te.ErrStack, getCallerFile(err))
	return te
}
