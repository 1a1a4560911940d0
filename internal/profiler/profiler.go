// Package profiler writes CPU and heap profiles of a review run.
package profiler

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"
)

// Profiler collects the profiles requested in Config until Stop is called.
type Profiler struct {
	cpuFile   *os.File
	memFile   string
	startTime time.Time
}

// Config names the profile files. Empty paths disable that profile.
type Config struct {
	CPUProfile string
	MemProfile string
}

// Enabled reports whether any profile was requested.
func (c Config) Enabled() bool {
	return c.CPUProfile != "" || c.MemProfile != ""
}

// Start begins CPU profiling if requested.
func Start(cfg Config) (*Profiler, error) {
	p := &Profiler{memFile: cfg.MemProfile, startTime: time.Now()}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}
	return p, nil
}

// Stop ends CPU profiling and writes the heap profile.
func (p *Profiler) Stop() error {
	var errs []error

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close CPU profile: %w", err))
		}
		p.cpuFile = nil
	}

	if p.memFile != "" {
		// Up-to-date heap statistics need a collection first.
		runtime.GC()
		if err := writeHeap(p.memFile); err != nil {
			errs = append(errs, err)
		}
		p.memFile = ""
	}

	return errors.Join(errs...)
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create memory profile: %w", err)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write memory profile: %w", err)
	}
	return nil
}

// Duration returns the time since Start.
func (p *Profiler) Duration() time.Duration {
	return time.Since(p.startTime)
}

// MemStats is a summary of runtime.MemStats.
type MemStats struct {
	Alloc     uint64
	HeapAlloc uint64
	Sys       uint64
	NumGC     uint32
}

// Stats reads the current memory statistics.
func Stats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{Alloc: m.Alloc, HeapAlloc: m.HeapAlloc, Sys: m.Sys, NumGC: m.NumGC}
}

func (m MemStats) String() string {
	return fmt.Sprintf("alloc=%s heap=%s sys=%s gc=%d",
		humanize.IBytes(m.Alloc), humanize.IBytes(m.HeapAlloc), humanize.IBytes(m.Sys), m.NumGC)
}
