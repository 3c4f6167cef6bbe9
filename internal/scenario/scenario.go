// Package scenario describes how a world starts: a consumer group and a
// declarative list of factory groups, loadable from YAML.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/entropy"
)

// Scenario is the starting state of a world.
type Scenario struct {
	Seed      int64          `yaml:"seed"` // 0 = fresh seed each run
	Consumers ConsumerGroup  `yaml:"consumers"`
	Factories []FactoryGroup `yaml:"factories"`
}

// ConsumerGroup is a batch of identical pops.
type ConsumerGroup struct {
	Count  int `yaml:"count"`
	Money  int `yaml:"money"`
	Health int `yaml:"health"`

	// WealthSpread varies starting money by up to ±spread of Money using
	// smooth noise across the group. 0 keeps every pop identical.
	WealthSpread float64 `yaml:"wealth_spread"`
}

// FactoryGroup is a batch of identical factories making one good.
type FactoryGroup struct {
	Count int    `yaml:"count"`
	Good  string `yaml:"good"`
	Money int    `yaml:"money"`
}

// Default returns the documented starting economy: ten healthy pops and
// ten food and ten clothes factories, everyone holding 10 000.
func Default() Scenario {
	return Scenario{
		Consumers: ConsumerGroup{Count: 10, Money: 10_000, Health: 10},
		Factories: []FactoryGroup{
			{Count: 10, Good: economy.Food.String(), Money: 10_000},
			{Count: 10, Good: economy.Clothes.String(), Money: 10_000},
		},
	}
}

// Load reads a scenario from a YAML file. Fields missing from the file
// keep their Default values.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (Scenario, error) {
	sc := Default()
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate reports every problem with the scenario at once.
func (sc Scenario) Validate() error {
	var errs []error

	c := sc.Consumers
	if c.Count < 0 {
		errs = append(errs, fmt.Errorf("consumers: negative count %d", c.Count))
	}
	if c.Money < 0 {
		errs = append(errs, fmt.Errorf("consumers: negative money %d", c.Money))
	}
	if c.Health <= 0 && c.Count > 0 {
		errs = append(errs, fmt.Errorf("consumers: health %d leaves pops dead on arrival", c.Health))
	}
	if c.WealthSpread < 0 || c.WealthSpread > 1 {
		errs = append(errs, fmt.Errorf("consumers: wealth_spread %.2f outside [0, 1]", c.WealthSpread))
	}

	for i, fg := range sc.Factories {
		if _, err := productOf(fg.Good); err != nil {
			errs = append(errs, fmt.Errorf("factories[%d]: %w", i, err))
		}
		if fg.Count < 0 {
			errs = append(errs, fmt.Errorf("factories[%d]: negative count %d", i, fg.Count))
		}
		if fg.Money < engine.FactoryCost {
			errs = append(errs, fmt.Errorf("factories[%d]: money %d below construction cost %d",
				i, fg.Money, engine.FactoryCost))
		}
	}

	return errors.Join(errs...)
}

// Build validates sc and constructs a world drawing randomness from rng.
func Build(sc Scenario, rng entropy.Source) (*engine.World, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	pops := make([]engine.Pop, 0, sc.Consumers.Count)
	for _, money := range startingWealth(sc.Consumers, sc.Seed) {
		pops = append(pops, engine.Pop{Money: money, Health: sc.Consumers.Health})
	}

	var factories []engine.Factory
	for _, fg := range sc.Factories {
		p, _ := productOf(fg.Good)
		for i := 0; i < fg.Count; i++ {
			factories = append(factories, engine.NewFactory(p, fg.Money))
		}
	}

	return engine.NewWorld(rng, pops, factories), nil
}

func productOf(name string) (economy.Product, error) {
	g, err := economy.ParseGood(name)
	if err != nil {
		return economy.Product{}, err
	}
	p, ok := economy.ProductOf(g)
	if !ok {
		return economy.Product{}, fmt.Errorf("factories cannot produce %s", g)
	}
	return p, nil
}
