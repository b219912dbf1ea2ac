package port

import "gdmigrate/internal/domain"

// DiagnosticsReporter consumes what the engine exposes per file: the final
// text, its category sequence and its transform report.
type DiagnosticsReporter interface {
	Consume(res domain.FileResult)
}
