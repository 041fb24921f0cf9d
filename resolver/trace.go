package resolver

import (
	"log/slog"
)

// tracer emits best-first search progress at slog.Debug level, gated on
// whether the caller enabled tracing; disabled tracers are free to call
// since every method is a no-op guard over a nil logger.
type tracer struct {
	log *slog.Logger
}

func newTracer(log *slog.Logger) tracer {
	return tracer{log: log}
}

func (t tracer) prefix(level int) string {
	return "resolver"
}

func (t tracer) logVisit(sol *Solution) {
	if t.log == nil {
		return
	}
	t.log.Debug(t.prefix(sol.level)+": visiting solution", "id", sol.id, "level", sol.level, "score", sol.score)
}

func (t tracer) logSelect(sol *Solution, action Action) {
	if t.log == nil {
		return
	}
	installed := "none"
	if action.Install != nil {
		installed = action.Install.Version.String()
	}
	t.log.Debug(t.prefix(sol.level)+": selected action", "id", sol.id, "package", action.Package, "version", installed, "profit", action.Profit)
}

func (t tracer) logFinish(sol *Solution) {
	if t.log == nil {
		return
	}
	t.log.Debug(t.prefix(sol.level)+": solution finished", "id", sol.id, "score", sol.score)
}

func (t tracer) logSolve(iterations int, sol *Solution) {
	if t.log == nil {
		return
	}
	if sol == nil {
		t.log.Debug("resolver: exhausted search without a solution", "iterations", iterations)
		return
	}
	t.log.Debug("resolver: solved", "iterations", iterations, "solution", sol.id, "score", sol.score)
}
