package log

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the minimal logging surface used across krefresh, custom
// implementations can be provided through each component's options.
type Logger interface {
	Trace(msg string)
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// DefaultLogger writes to the global zerolog logger
var DefaultLogger = New("krefresh")

type logger struct {
	module string
}

// New creates a zerolog backed Logger, every line is tagged with given module name
func New(module string) Logger {
	return &logger{module: module}
}

func (lg *logger) Trace(msg string) {
	lg.event(log.Trace()).Msg(msg)
}

func (lg *logger) Debug(msg string) {
	lg.event(log.Debug()).Msg(msg)
}

func (lg *logger) Info(msg string) {
	lg.event(log.Info()).Msg(msg)
}

func (lg *logger) Warn(msg string) {
	lg.event(log.Warn()).Msg(msg)
}

func (lg *logger) Error(msg string) {
	lg.event(log.Error()).Msg(msg)
}

func (lg *logger) event(e *zerolog.Event) *zerolog.Event {
	return e.Str("module", lg.module)
}
