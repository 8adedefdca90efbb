// Package profiler writes CPU and heap profiles around a batch run.
package profiler

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/JNZader/diffparse/internal/config"
	"github.com/JNZader/diffparse/internal/logger"
)

// Profiler collects the profiles requested by a config.ProfileConfig.
// The zero profile set is valid and makes Stop a no-op.
type Profiler struct {
	started time.Time
	log     *logger.Logger

	// finalizers run once on Stop, in order.
	finalizers []func() error
}

// New starts the profiles enabled in cfg. A nil log discards progress
// messages.
func New(cfg config.ProfileConfig, log *logger.Logger) (*Profiler, error) {
	if log == nil {
		log = logger.New(logger.LevelError, os.Stderr)
	}
	p := &Profiler{started: time.Now(), log: log.WithPrefix("profiler")}

	if cfg.CPU != "" {
		stop, err := startCPU(cfg.CPU)
		if err != nil {
			return nil, err
		}
		p.log.Debug("writing CPU profile to %s", cfg.CPU)
		p.finalizers = append(p.finalizers, stop)
	}
	if path := cfg.Mem; path != "" {
		p.finalizers = append(p.finalizers, func() error {
			err := writeHeap(path)
			p.log.Debug("wrote heap profile to %s after %s", path, p.Duration().Round(time.Millisecond))
			return err
		})
	}
	return p, nil
}

func startCPU(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("start CPU profile: %w", err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close CPU profile: %w", err)
		}
		return nil
	}, nil
}

func writeHeap(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	werr := pprof.WriteHeapProfile(f)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write heap profile: %w", werr)
	}
	return cerr
}

// Enabled reports whether Stop still has profiles to finish.
func (p *Profiler) Enabled() bool {
	return len(p.finalizers) > 0
}

// Stop finishes every profile. Later calls do nothing.
func (p *Profiler) Stop() error {
	if !p.Enabled() {
		return nil
	}
	var errs []error
	for _, fin := range p.finalizers {
		if err := fin(); err != nil {
			errs = append(errs, err)
		}
	}
	p.finalizers = nil
	p.log.Debug("memory: %s", Stats())
	return errors.Join(errs...)
}

// Duration is the time elapsed since New.
func (p *Profiler) Duration() time.Duration {
	return time.Since(p.started)
}

// MemStats is the subset of runtime.MemStats logged after a run.
type MemStats struct {
	Alloc     uint64
	HeapAlloc uint64
	Sys       uint64
	NumGC     uint32
}

func Stats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{Alloc: m.Alloc, HeapAlloc: m.HeapAlloc, Sys: m.Sys, NumGC: m.NumGC}
}

func (m MemStats) String() string {
	return fmt.Sprintf("alloc=%s heap=%s sys=%s gc=%d",
		formatBytes(m.Alloc), formatBytes(m.HeapAlloc), formatBytes(m.Sys), m.NumGC)
}

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

func formatBytes(b uint64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	v := float64(b) / 1024
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[i])
}
