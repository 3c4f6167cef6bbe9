package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Engine drives a World forward at a steady pace.
type Engine struct {
	World    *World
	Interval time.Duration // Base time per simulated day
	MaxDays  uint64        // Stop after this many days; 0 runs until Stop

	// OnDay runs after every day with the fresh snapshot.
	OnDay func(snap Snapshot)

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = one day per Interval, 0 = paused
	running bool
}

// NewEngine creates an engine for w at one day per second.
func NewEngine(w *World) *Engine {
	return &Engine{
		World:    w,
		Interval: time.Second,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero pauses.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run advances the world until Stop is called or MaxDays is reached.
func (e *Engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	slog.Info("simulation engine started", "day", e.World.Day, "speed", e.Speed())

	for e.Running() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused. Check again shortly.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		if e.MaxDays > 0 && e.World.Day >= e.MaxDays {
			e.Stop()
			break
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "day", e.World.Day)
}

// Stop halts the loop after the current day.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Step advances exactly one day and fires OnDay.
func (e *Engine) Step() {
	e.World.Tick()
	if e.OnDay != nil {
		e.OnDay(e.World.Snapshot())
	}
}
