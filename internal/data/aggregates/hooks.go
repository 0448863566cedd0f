package aggregates

import (
	"strings"
	"time"

	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// Hooks captures unit-of-work outcomes.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}

type logHooks struct {
	log *logger.Logger
}

// NewLogHooks reports every unit of work at debug level and conflicts at warn.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "TxHooks")}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.log.Debug("unit of work finished", "op", strings.TrimSpace(name), "status", strings.TrimSpace(status), "duration_ms", dur.Milliseconds())
}

func (h *logHooks) IncConflict(name string) {
	h.log.Warn("unique constraint conflict", "op", strings.TrimSpace(name))
}

type multiHooks []Hooks

// CombineHooks fans every observation out to each non-nil hook.
func CombineHooks(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return noopHooks{}
	}
	return out
}

func (m multiHooks) ObserveOperation(name, status string, dur time.Duration) {
	for _, h := range m {
		h.ObserveOperation(name, status, dur)
	}
}

func (m multiHooks) IncConflict(name string) {
	for _, h := range m {
		h.IncConflict(name)
	}
}
