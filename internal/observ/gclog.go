package observ

import (
	"fmt"
	"sync"
	"time"
)

// Cycle records one stop-the-world collection.
type Cycle struct {
	Start            time.Time
	Dur              time.Duration
	Live             int // terms surviving the sweep
	Reclaimed        int // terms freed
	SymbolsReclaimed int // symbols freed
	Capacity         int // table capacity after the sweep
}

// Log accumulates collection cycles for reporting.
type Log struct {
	mu     sync.Mutex
	cycles []Cycle
}

// NewLog creates an empty collection log.
func NewLog() *Log { return &Log{cycles: make([]Cycle, 0, 8)} }

// Record appends a finished cycle.
func (l *Log) Record(c Cycle) {
	l.mu.Lock()
	l.cycles = append(l.cycles, c)
	l.mu.Unlock()
}

// CycleReport is the serializable form of one cycle.
type CycleReport struct {
	DurationMS       float64 `json:"duration_ms"`
	Live             int     `json:"live"`
	Reclaimed        int     `json:"reclaimed"`
	SymbolsReclaimed int     `json:"symbols_reclaimed,omitempty"`
	Capacity         int     `json:"capacity"`
}

// Report aggregates the log.
type Report struct {
	Collections int           `json:"collections"`
	TotalMS     float64       `json:"total_ms"`
	Reclaimed   int           `json:"reclaimed"`
	Cycles      []CycleReport `json:"cycles,omitempty"`
}

// Report builds the aggregated view of all recorded cycles.
func (l *Log) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.cycles) == 0 {
		return Report{}
	}
	report := Report{
		Collections: len(l.cycles),
		Cycles:      make([]CycleReport, len(l.cycles)),
	}
	var total time.Duration
	for i, c := range l.cycles {
		total += c.Dur
		report.Reclaimed += c.Reclaimed
		report.Cycles[i] = CycleReport{
			DurationMS:       durationToMillis(c.Dur),
			Live:             c.Live,
			Reclaimed:        c.Reclaimed,
			SymbolsReclaimed: c.SymbolsReclaimed,
			Capacity:         c.Capacity,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

// Summary returns a human-readable string summarizing all cycles.
func (l *Log) Summary() string {
	report := l.Report()
	if report.Collections == 0 {
		return "collections: none\n"
	}
	out := "collections:\n"
	for i, c := range report.Cycles {
		out += fmt.Sprintf("  #%-3d %7.2f ms  live %-8d reclaimed %-8d capacity %d\n",
			i+1, c.DurationMS, c.Live, c.Reclaimed, c.Capacity)
	}
	out += fmt.Sprintf("  %-4s %7.2f ms  reclaimed %d\n", "total", report.TotalMS, report.Reclaimed)
	return out
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
