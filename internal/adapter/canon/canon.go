// Package canon regroups the members of a script into canonical order.
package canon

import (
	"fmt"
	"slices"
	"strings"

	"gdmigrate/internal/domain"
)

// CounterReorder is 1 when the member layout of a file changed.
const CounterReorder = "member_reorder"

// Unit is one class-scope member: the comments and annotations directly
// above it, its first line, everything nested under it and the blank
// lines that follow.
type Unit struct {
	Bucket domain.MemberBucket
	Head   *domain.Line
	Lines  []*domain.Line
}

// Canonicalizer concatenates members bucket by bucket, keeping the
// relative order inside each bucket.
type Canonicalizer struct{}

func (Canonicalizer) Name() string { return "canonicalize" }

func (Canonicalizer) Apply(sf *domain.SourceFile) error {
	sf.Report.Register(CounterReorder)
	for _, l := range sf.Lines {
		if l.Category == domain.Orphan {
			return &domain.FileError{
				Kind: domain.PreconditionViolation,
				Path: sf.Path,
				Err:  fmt.Errorf("%w: unresolved orphan at line %d before member canonicalization", domain.ErrPrecondition, l.Number),
			}
		}
	}

	prelude, units := Split(sf.Lines)
	if len(units) == 0 {
		return nil
	}

	out := trimBlanks(prelude)
	for b := domain.BucketClassDecl; b <= domain.BucketOther; b++ {
		var members []Unit
		for _, u := range units {
			if u.Bucket == b {
				members = append(members, u)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, blank())
		}
		for i, u := range members {
			if i == len(members)-1 {
				out = append(out, trimBlanks(u.Lines)...)
				continue
			}
			out = append(out, u.Lines...)
			if u.Head.Opens && !isBlank(u.Lines[len(u.Lines)-1]) {
				out = append(out, blank())
			}
		}
	}

	if !slices.Equal(texts(out), sf.Texts()) {
		sf.Lines = out
		sf.Report.Add(CounterReorder, 1)
	}
	return nil
}

// Split cuts a file into its leading header block and its members.
func Split(lines []*domain.Line) ([]*domain.Line, []Unit) {
	var (
		prelude []*domain.Line
		units   []Unit
		pending []*domain.Line
	)
	for _, l := range lines {
		if isHead(l) {
			k := len(pending)
			for k > 0 && !isBlank(pending[k-1]) {
				k--
			}
			// Indented comments still belong to the body above them.
			for k < len(pending) && pending[k].Depth > 0 && pending[k].Category.IsTrivia() {
				k++
			}
			if len(units) == 0 {
				prelude = append(prelude, pending[:k]...)
			} else {
				last := &units[len(units)-1]
				last.Lines = append(last.Lines, pending[:k]...)
			}
			lead := append([]*domain.Line(nil), pending[k:]...)
			units = append(units, Unit{
				Bucket: l.Category.Bucket(),
				Head:   l,
				Lines:  append(lead, l),
			})
			pending = nil
			continue
		}
		if len(units) > 0 && (l.Continuation || (l.Depth > 0 && !l.Category.IsTrivia())) {
			last := &units[len(units)-1]
			last.Lines = append(last.Lines, pending...)
			last.Lines = append(last.Lines, l)
			pending = nil
			continue
		}
		pending = append(pending, l)
	}
	if len(units) == 0 {
		return append(prelude, pending...), nil
	}
	last := &units[len(units)-1]
	last.Lines = append(last.Lines, pending...)
	return prelude, units
}

func isHead(l *domain.Line) bool {
	return !l.Continuation && !l.Annotation && l.Depth == 0 && !l.Category.IsTrivia()
}

func isBlank(l *domain.Line) bool {
	return !l.Continuation && strings.TrimSpace(l.Text) == ""
}

func trimBlanks(lines []*domain.Line) []*domain.Line {
	end := len(lines)
	for end > 0 && isBlank(lines[end-1]) {
		end--
	}
	return lines[:end]
}

func blank() *domain.Line {
	return &domain.Line{Category: domain.Blank}
}

func texts(lines []*domain.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
