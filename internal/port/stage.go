package port

import "gdmigrate/internal/domain"

// Stage is one step of the per-file pipeline. A stage owns the file for
// the duration of Apply and must leave every line's category in step
// with its text.
type Stage interface {
	Name() string
	Apply(sf *domain.SourceFile) error
}
