// World ties the markets, population and industry together and runs each day.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/entropy"
)

// maxEvents bounds the retained event history.
const maxEvents = 1000

// World holds the complete economy state. It owns its markets, population
// and industry exclusively.
type World struct {
	Market     *economy.Network
	Population *Population
	Industry   *Industry
	Day        uint64
	Events     []Event // Most recent lifecycle events
	Stats      Stats
}

// Event is a notable lifecycle occurrence.
type Event struct {
	Day         uint64 `json:"day"`
	Description string `json:"description"`
	Category    string `json:"category"` // "birth", "death", "bankruptcy", "expansion", "lost_inheritance"
}

// Stats tracks cumulative lifecycle totals.
type Stats struct {
	Births          int `json:"births"`
	Deaths          int `json:"deaths"`
	Bankruptcies    int `json:"bankruptcies"`
	Expansions      int `json:"expansions"`
	LostInheritance int `json:"lost_inheritance"`
}

// NewWorld creates a world at day 0. Every stochastic step draws from rng.
func NewWorld(rng entropy.Source, pops []Pop, factories []Factory) *World {
	return &World{
		Market:     economy.NewNetwork(),
		Population: NewPopulation(rng, pops),
		Industry:   NewIndustry(rng, factories),
	}
}

// Tick advances one day: open the markets, let pops consume and offer
// labour, let factories hire and produce, then close the markets so the
// day's imbalance sets tomorrow's prices. Goods produced today are offered
// today but can only be bought from tomorrow.
func (w *World) Tick() {
	w.Market.Open()

	var t Turnover
	t.add(w.Population.Tick(w.Industry, w.Market))
	t.add(w.Industry.Tick(w.Population, w.Market))

	w.Market.Close()
	w.Day++
	w.record(t)
}

// record folds one day's turnover into stats and the event history.
func (w *World) record(t Turnover) {
	w.Stats.Births += t.Births
	w.Stats.Deaths += t.Deaths
	w.Stats.Bankruptcies += t.Bankruptcies
	w.Stats.Expansions += t.Expansions
	w.Stats.LostInheritance += t.LostInheritance

	add := func(n int, category, format string) {
		if n == 0 {
			return
		}
		w.Events = append(w.Events, Event{
			Day:         w.Day,
			Description: fmt.Sprintf(format, n),
			Category:    category,
		})
	}
	add(t.Births, "birth", "%d pops born")
	add(t.Deaths, "death", "%d pops died")
	add(t.Bankruptcies, "bankruptcy", "%d factories liquidated")
	add(t.Expansions, "expansion", "%d factories founded")
	add(t.LostInheritance, "lost_inheritance", "%d money lost with no heirs")

	if len(w.Events) > maxEvents {
		w.Events = w.Events[len(w.Events)-maxEvents:]
	}

	if t != (Turnover{}) {
		slog.Debug("turnover",
			"day", w.Day,
			"births", t.Births,
			"deaths", t.Deaths,
			"bankruptcies", t.Bankruptcies,
			"expansions", t.Expansions,
			"lost_inheritance", t.LostInheritance,
		)
	}
}

// Snapshot is a read-only copy of everything reports need about one day.
type Snapshot struct {
	Day           uint64           `json:"day"`
	Markets       []economy.Market `json:"markets"`
	Population    int              `json:"population"`
	Factories     map[string]int   `json:"factories"` // Product name → count
	Inventory     map[string]int   `json:"inventory"` // Product name → stock
	ConsumerMoney int              `json:"consumer_money"`
	ProducerMoney int              `json:"producer_money"`
	Stats         Stats            `json:"stats"`
}

// TotalMoney returns money held by pops and factories together.
func (s Snapshot) TotalMoney() int {
	return s.ConsumerMoney + s.ProducerMoney
}

// Snapshot captures the current state.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Day:           w.Day,
		Markets:       w.Market.Markets(),
		Population:    w.Population.Count(),
		Factories:     make(map[string]int, len(economy.Products)),
		Inventory:     make(map[string]int, len(economy.Products)),
		ConsumerMoney: w.Population.MoneySupply(),
		ProducerMoney: w.Industry.MoneySupply(),
		Stats:         w.Stats,
	}
	for _, p := range economy.Products {
		snap.Factories[p.String()] = w.Industry.CountOf(p)
		snap.Inventory[p.String()] = w.Industry.Inventory(p)
	}
	return snap
}
