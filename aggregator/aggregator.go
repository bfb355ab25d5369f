// Package aggregator merges per-segment attempts into one transcript.
package aggregator

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/transcription"
)

// Merged is the combined outcome of every segment.
type Merged struct {
	Text     string
	Language string
	// Confidence is nil when no attempt reported one.
	Confidence     *float64
	Duration       float64
	ProcessingTime time.Duration
	FallbackUsed   bool
	// Backends lists the distinct backends in first-use order.
	Backends []string
	// Attempts are ordered by segment index.
	Attempts []*transcription.Attempt
}

// Aggregator collects exactly one successful attempt per segment index.
// It is not safe for concurrent use; callers gather results first.
type Aggregator struct {
	slots    []*transcription.Attempt
	fallback []bool
}

// New creates an aggregator expecting total segments.
func New(total int) *Aggregator {
	return &Aggregator{
		slots:    make([]*transcription.Attempt, total),
		fallback: make([]bool, total),
	}
}

// Add records a for its segment index.
func (g *Aggregator) Add(a *transcription.Attempt) error {
	return g.add(a, false)
}

// AddFallback records a and marks its segment as served by fallback.
func (g *Aggregator) AddFallback(a *transcription.Attempt) error {
	return g.add(a, true)
}

func (g *Aggregator) add(a *transcription.Attempt, fallback bool) error {
	if a == nil {
		return apperrors.AggregationInconsistency("nil attempt", -1)
	}
	idx := a.SegmentIndex
	if idx < 0 || idx >= len(g.slots) {
		return apperrors.AggregationInconsistency(
			fmt.Sprintf("segment index out of range [0,%d)", len(g.slots)), idx)
	}
	if g.slots[idx] != nil {
		return apperrors.AggregationInconsistency("duplicate segment", idx)
	}
	if !a.OK {
		return apperrors.AggregationInconsistency("failed attempt", idx)
	}
	g.slots[idx] = a
	g.fallback[idx] = fallback
	return nil
}

// Merge combines the collected attempts. Texts are trimmed and joined in
// index order with a single space; empty texts are skipped.
func (g *Aggregator) Merge() (*Merged, error) {
	if len(g.slots) == 0 {
		return nil, apperrors.AggregationInconsistency("no segments", 0)
	}
	m := &Merged{Attempts: make([]*transcription.Attempt, len(g.slots))}
	seen := make(map[string]bool)

	var (
		weighted, weight, plain float64
		nConf                   int
		text                    []string
	)
	for i, a := range g.slots {
		if a == nil {
			return nil, apperrors.AggregationInconsistency("missing segment", i)
		}
		m.Attempts[i] = a
		if t := strings.TrimSpace(a.Text); t != "" {
			text = append(text, t)
		}
		m.Duration += a.Duration
		if a.ProcessingTime > m.ProcessingTime {
			m.ProcessingTime = a.ProcessingTime
		}
		m.FallbackUsed = m.FallbackUsed || g.fallback[i]
		if m.Language == "" && a.Language != "" {
			m.Language = a.Language
		}
		if !seen[a.Backend] {
			seen[a.Backend] = true
			m.Backends = append(m.Backends, a.Backend)
		}
		if a.Confidence != nil {
			nConf++
			plain += *a.Confidence
			weighted += *a.Confidence * a.Duration
			weight += a.Duration
		}
	}
	m.Text = strings.Join(text, " ")

	switch {
	case nConf == 0:
	case weight > 0:
		m.Confidence = transcription.Float(weighted / weight)
	default:
		m.Confidence = transcription.Float(plain / float64(nConf))
	}
	return m, nil
}
