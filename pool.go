package aterm

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"aterm/internal/observ"
	"aterm/internal/trace"
)

// numericSymbolName is the reserved head symbol of numeric leaves.
const numericSymbolName = "Int"

// minGCInterval floors the number of fresh insertions between automatic
// collections so small pools are not collected on every construction.
const minGCInterval = 1024

// globalPool is the process-wide term repository: symbol table, term
// table, thread registry and the construction/collection barrier.
type globalPool struct {
	cfg     Config
	barrier *sharedBarrier

	// tableMu is the short latch serializing table probes and inserts
	// inside the shared grant.
	tableMu sync.Mutex
	symbols symbolTable
	terms   termTable

	// threads is the registry of participating threads, guarded by
	// barrier.mu.
	threads     []*ThreadPool
	nextThread  int
	threadCount atomic.Int64

	// numSym is the reserved symbol of numeric leaves; always live.
	numSym *symbolRecord

	gcEnabled  atomic.Bool
	gcInterval atomic.Int64

	tracer trace.Tracer
	gcLog  *observ.Log
}

var (
	globalMu  sync.Mutex
	globalCfg = DefaultConfig()
	global    *globalPool
)

// Configure replaces the pool configuration. It must be called before
// the pool is first used; once a thread has registered the configuration
// is frozen.
func Configure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return fmt.Errorf("term pool already initialized")
	}
	globalCfg = cfg
	return nil
}

// Initialize eagerly creates the global pool with the current
// configuration. Calling it is optional; the pool also initializes on
// the first Register.
func Initialize() {
	getGlobal()
}

func getGlobal() *globalPool {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = newGlobalPool(globalCfg)
	}
	return global
}

func newGlobalPool(cfg Config) *globalPool {
	g := &globalPool{
		cfg:     cfg,
		barrier: newSharedBarrier(),
		symbols: newSymbolTable(),
		terms:   newTermTable(cfg.InitialTableCapacity),
		tracer:  newTracer(cfg),
		gcLog:   observ.NewLog(),
	}
	g.numSym, _ = g.symbols.intern(numericSymbolName, 0)
	g.gcEnabled.Store(cfg.GCEnabled)
	g.gcInterval.Store(minGCInterval)
	return g
}

func newTracer(cfg Config) trace.Tracer {
	level := trace.LevelOff
	if cfg.TraceLevel != "" {
		level, _ = parseTraceLevel(cfg.TraceLevel)
	}
	if level == trace.LevelOff {
		return trace.Nop
	}
	mode, _ := parseTraceMode(cfg.TraceMode)
	t, err := trace.New(trace.Config{Level: level, Mode: mode, OutputPath: cfg.TraceOutput})
	if err != nil {
		return trace.Nop
	}
	return t
}

func parseTraceLevel(s string) (trace.Level, error) {
	return trace.ParseLevel(s)
}

func parseTraceMode(s string) (trace.StorageMode, error) {
	return trace.ParseMode(s)
}

// DumpTrace writes the contents of the in-memory trace ring, if the
// pool was configured with a ring storage mode, to w.
func DumpTrace(w io.Writer) error {
	g := getGlobal()
	switch t := g.tracer.(type) {
	case *trace.RingTracer:
		return t.Dump(w, trace.FormatText)
	case *trace.MultiTracer:
		if ring := t.Ring(); ring != nil {
			return ring.Dump(w, trace.FormatText)
		}
	}
	return fmt.Errorf("no trace ring configured")
}

// Reset discards the global pool so tests can start from a clean slate.
// It refuses to run while any thread is registered.
func Reset() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return nil
	}
	if global.threadCount.Load() != 0 {
		return fmt.Errorf("term pool reset with %d registered threads", global.threadCount.Load())
	}
	_ = global.tracer.Close()
	global = nil
	globalCfg = DefaultConfig()
	return nil
}

// EnableAutomaticGC toggles countdown-triggered collection. Explicit
// CollectNow calls work regardless.
func EnableAutomaticGC(enabled bool) {
	getGlobal().gcEnabled.Store(enabled)
}

// PoolSize returns the number of live term nodes.
func PoolSize() int {
	g := getGlobal()
	g.tableMu.Lock()
	defer g.tableMu.Unlock()
	return g.terms.len()
}

// PoolCapacity returns the current slot count of the term table.
func PoolCapacity() int {
	g := getGlobal()
	g.tableMu.Lock()
	defer g.tableMu.Unlock()
	return g.terms.capacity()
}

// SymbolCount returns the number of live symbols, including the
// reserved numeric symbol.
func SymbolCount() int {
	g := getGlobal()
	g.tableMu.Lock()
	defer g.tableMu.Unlock()
	return g.symbols.len()
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Terms       int     `json:"terms"`
	Capacity    int     `json:"capacity"`
	Symbols     int     `json:"symbols"`
	Insertions  uint64  `json:"insertions"`
	Hits        uint64  `json:"hits"`
	Collections int     `json:"collections"`
	Reclaimed   int     `json:"reclaimed"`
	GCTotalMS   float64 `json:"gc_total_ms"`
}

// Stats returns a snapshot of pool counters.
func Stats() PoolStats {
	g := getGlobal()
	report := g.gcLog.Report()
	g.tableMu.Lock()
	defer g.tableMu.Unlock()
	return PoolStats{
		Terms:       g.terms.len(),
		Capacity:    g.terms.capacity(),
		Symbols:     g.symbols.len(),
		Insertions:  g.terms.inserted,
		Hits:        g.terms.hits,
		Collections: report.Collections,
		Reclaimed:   report.Reclaimed,
		GCTotalMS:   report.TotalMS,
	}
}

// GCSummary returns a human-readable log of past collection cycles.
func GCSummary() string {
	return getGlobal().gcLog.Summary()
}

// Register adds the calling goroutine to the pool and returns its
// thread-local handle. Every goroutine that constructs or protects
// terms needs its own handle; handles must not be shared across
// goroutines. Close deregisters.
func Register() *ThreadPool {
	g := getGlobal()
	tp := &ThreadPool{
		g:           g,
		termRoots:   newProtSet[*node](g.cfg.ThreadRegistryInitial),
		symRoots:    newProtSet[*symbolRecord](g.cfg.ThreadRegistryInitial),
		contRoots:   newProtSet[Markable](8),
		gcCountdown: g.gcInterval.Load(),
	}
	g.barrier.mu.Lock()
	tp.index = g.nextThread
	g.nextThread++
	g.threads = append(g.threads, tp)
	g.barrier.mu.Unlock()
	g.threadCount.Add(1)

	g.tracer.Emit(trace.Event{
		Scope:  trace.ScopeThread,
		Kind:   trace.KindPoint,
		Name:   "register",
		Detail: fmt.Sprintf("thread %d", tp.index),
	})
	return tp
}

// currentInterval returns the countdown start for automatic collection.
func (g *globalPool) currentInterval() int64 {
	return g.gcInterval.Load()
}

// updateInterval recomputes the countdown from the live term count and
// the configured trigger ratio. Called at the end of a collection.
func (g *globalPool) updateInterval() {
	next := int64(g.cfg.GCTriggerRatio * float64(g.terms.len()))
	if next < minGCInterval {
		next = minGCInterval
	}
	g.gcInterval.Store(next)
}
