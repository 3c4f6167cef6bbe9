// Industrial dynamics: labour hiring, production, bankruptcy and expansion.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/entropy"
)

// Factory economics.
const (
	FactoryCost     = 5000 // Money a new factory is founded with
	LabourBudgetPct = 80   // Share of money spent on labour each day
	MinLabour       = 1    // Labour units needed to produce anything
	BankruptDays    = 5    // Consecutive idle days before liquidation
)

// recipe describes how a product is made and how it keeps.
type recipe struct {
	retainPct   int     // Share of inventory surviving each day
	coefficient float32 // Output scale on ln(1 + labour)
}

var recipes = map[economy.Product]recipe{
	economy.ProductFood:    {retainPct: 90, coefficient: 2.0},
	economy.ProductClothes: {retainPct: 98, coefficient: 0.7},
}

// Factory is a producer agent. Its product never changes.
type Factory struct {
	Product    economy.Product `json:"product"`
	Money      int             `json:"money"`
	Inventory  int             `json:"inventory"`
	DaysClosed int             `json:"days_closed"`
}

// NewFactory creates an idle factory with money and no stock.
func NewFactory(p economy.Product, money int) Factory {
	return Factory{Product: p, Money: money}
}

// Industry owns the producer agents.
type Industry struct {
	factories []*Factory
	rng       entropy.Source
}

// NewIndustry creates an industry from initial factory states.
func NewIndustry(rng entropy.Source, initial []Factory) *Industry {
	factories := make([]*Factory, 0, len(initial))
	for _, f := range initial {
		factories = append(factories, &f)
	}
	return &Industry{factories: factories, rng: rng}
}

// Count returns the number of operating factories.
func (ind *Industry) Count() int { return len(ind.factories) }

// CountOf returns the number of factories making p.
func (ind *Industry) CountOf(p economy.Product) int {
	n := 0
	for _, f := range ind.factories {
		if f.Product == p {
			n++
		}
	}
	return n
}

// Inventory returns the total stock of p held across factories.
func (ind *Industry) Inventory(p economy.Product) int {
	total := 0
	for _, f := range ind.factories {
		if f.Product == p {
			total += f.Inventory
		}
	}
	return total
}

// MoneySupply returns the sum of money held by factories.
func (ind *Industry) MoneySupply() int {
	total := 0
	for _, f := range ind.factories {
		total += f.Money
	}
	return total
}

// Factories returns copies of every factory in current order.
func (ind *Industry) Factories() []Factory {
	out := make([]Factory, len(ind.factories))
	for i, f := range ind.factories {
		out[i] = *f
	}
	return out
}

// Buy fills an order for target units of p at price from factory stock,
// paying each seller as it goes. Factories making other products are
// skipped. Panics on an empty industry.
func (ind *Industry) Buy(target int, p economy.Product, price int) Purchase {
	mustNonNegative("commodity target", target)

	bought := fillOrder(ind.rng, len(ind.factories), target, func(i, want int) int {
		f := ind.factories[i]
		if f.Product != p {
			return 0
		}
		amount := min(f.Inventory, want)
		f.Money += amount * price
		f.Inventory -= amount
		return amount
	})
	return Purchase{Amount: bought, Cost: bought * price}
}

// Tick runs one day for every factory in random order, then liquidates
// bankrupt factories into pop and lets rich ones found new factories.
func (ind *Industry) Tick(pop *Population, market *economy.Network) Turnover {
	ind.rng.Shuffle(len(ind.factories), func(i, j int) {
		ind.factories[i], ind.factories[j] = ind.factories[j], ind.factories[i]
	})
	for _, f := range ind.factories {
		f.tick(pop, market)
	}
	return ind.turnover(pop)
}

// turnover classifies every factory once, then rebuilds the collection:
// operating factories in order, new ones appended. Liquidated money goes
// to the population, never to another factory.
func (ind *Industry) turnover(pop *Population) Turnover {
	var t Turnover
	var estates []Inheritance

	operating := make([]*Factory, 0, len(ind.factories))
	var founded []*Factory
	for _, f := range ind.factories {
		switch {
		case f.DaysClosed >= BankruptDays:
			estates = append(estates, Inheritance(f.Money))
			t.Bankruptcies++
			slog.Debug("factory liquidated", "product", f.Product, "money", f.Money)
		case f.Money >= FactoryCost*2:
			operating = append(operating, f)
			founded = append(founded, f.found())
			t.Expansions++
		default:
			operating = append(operating, f)
		}
	}
	ind.factories = append(operating, founded...)

	for _, inh := range estates {
		if !pop.DistributeInheritance(inh) {
			t.LostInheritance += int(inh)
			slog.Debug("liquidation lost, no heirs", "amount", int(inh))
		}
	}
	return t
}

// found pays FactoryCost out of f into a new factory making the same product.
func (f *Factory) found() *Factory {
	if f.Money < FactoryCost {
		panic(fmt.Sprintf("engine: factory with %d cannot fund construction", f.Money))
	}
	f.Money -= FactoryCost
	child := NewFactory(f.Product, FactoryCost)
	return &child
}

// tick hires labour, produces if enough was hired, and offers the whole
// inventory for sale.
func (f *Factory) tick(pop *Population, market *economy.Network) {
	budgetLabour := f.Money * LabourBudgetPct / 100
	target := budgetLabour / market.Price(economy.Labour)

	hired := buyLabour(pop, market, target)
	f.Money -= hired.Cost

	if hired.Amount < MinLabour {
		f.DaysClosed++
		return
	}
	f.DaysClosed = 0

	f.produce(hired.Amount)
	publishForSale(market, f.Product.Good(), f.Inventory)
}

// produce decays stock and adds output from labour units of work.
func (f *Factory) produce(labour int) {
	r, ok := recipes[f.Product]
	if !ok {
		panic(fmt.Sprintf("engine: no recipe for %s", f.Product))
	}
	f.Inventory = f.Inventory * r.retainPct / 100
	output := r.coefficient * float32(math.Log1p(float64(labour)))
	f.Inventory += int(output)
}
