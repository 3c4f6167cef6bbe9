// Population dynamics: consumption, labour supply, births and deaths.
package engine

import (
	"log/slog"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/entropy"
)

// Daily consumer behaviour.
const (
	FoodBudgetPct    = 40 // Share of money spent on food each day
	ClothesBudgetPct = 20 // Share of money spent on clothes each day
	LabourOutput     = 10 // Labour units every pop offers each day
	MinFood          = 2  // Food units needed to stay healthy
	MinClothes       = 1  // Clothes units needed to stay healthy
)

// Population turnover thresholds.
const (
	ReproduceHealth = 10 // Health at which a pop splits off a child
	ChildHealth     = 3  // Health a newborn starts with
)

// Pop is a consumer agent.
type Pop struct {
	Money  int `json:"money"`
	Labour int `json:"labour"` // Units still for sale today
	Health int `json:"health"`
}

// Population owns the consumer agents.
type Population struct {
	pops []*Pop
	rng  entropy.Source
}

// NewPopulation creates a population from initial pop states.
func NewPopulation(rng entropy.Source, initial []Pop) *Population {
	pops := make([]*Pop, 0, len(initial))
	for _, p := range initial {
		pops = append(pops, &p)
	}
	return &Population{pops: pops, rng: rng}
}

// Count returns the number of living pops.
func (p *Population) Count() int { return len(p.pops) }

// MoneySupply returns the sum of money held by pops.
func (p *Population) MoneySupply() int {
	total := 0
	for _, pop := range p.pops {
		total += pop.Money
	}
	return total
}

// Pops returns copies of every pop in current order.
func (p *Population) Pops() []Pop {
	out := make([]Pop, len(p.pops))
	for i, pop := range p.pops {
		out[i] = *pop
	}
	return out
}

// BuyLabour fills an order for target labour units at price from the
// labour pops are offering today, paying each seller as it goes. The
// returned amount is less than target when the population cannot supply it.
// Panics on an empty population.
func (p *Population) BuyLabour(target, price int) Purchase {
	mustNonNegative("labour target", target)

	bought := fillOrder(p.rng, len(p.pops), target, func(i, want int) int {
		pop := p.pops[i]
		amount := min(pop.Labour, want)
		pop.Money += amount * price
		pop.Labour -= amount
		return amount
	})
	return Purchase{Amount: bought, Cost: bought * price}
}

// DistributeInheritance credits inh to a uniformly random pop. It reports
// false, and the money is lost, when the population is empty.
func (p *Population) DistributeInheritance(inh Inheritance) bool {
	idx, ok := entropy.Pick(p.rng, len(p.pops))
	if !ok {
		return false
	}
	p.pops[idx].Money += int(inh)
	return true
}

// Turnover summarises lifecycle changes from one tick.
type Turnover struct {
	Births          int
	Deaths          int
	Bankruptcies    int
	Expansions      int
	LostInheritance int
}

func (t *Turnover) add(o Turnover) {
	t.Births += o.Births
	t.Deaths += o.Deaths
	t.Bankruptcies += o.Bankruptcies
	t.Expansions += o.Expansions
	t.LostInheritance += o.LostInheritance
}

// Tick runs one day for every pop in random order, then applies births
// and deaths.
func (p *Population) Tick(ind *Industry, market *economy.Network) Turnover {
	p.rng.Shuffle(len(p.pops), func(i, j int) {
		p.pops[i], p.pops[j] = p.pops[j], p.pops[i]
	})
	for _, pop := range p.pops {
		pop.tick(ind, market)
	}
	return p.turnover()
}

// turnover classifies every pop once, then rebuilds the collection:
// survivors in order, newborns appended, and the estates of the dead handed
// to random members of the rebuilt population.
func (p *Population) turnover() Turnover {
	var t Turnover
	var estates []Inheritance

	survivors := make([]*Pop, 0, len(p.pops))
	var children []*Pop
	for _, pop := range p.pops {
		switch {
		case pop.Health <= 0:
			estates = append(estates, Inheritance(pop.Money))
			t.Deaths++
		case pop.Health >= ReproduceHealth:
			survivors = append(survivors, pop)
			children = append(children, pop.reproduce())
			t.Births++
		default:
			survivors = append(survivors, pop)
		}
	}
	p.pops = append(survivors, children...)

	for _, inh := range estates {
		if !p.DistributeInheritance(inh) {
			t.LostInheritance += int(inh)
			slog.Debug("inheritance lost, no heirs", "amount", int(inh))
		}
	}
	return t
}

// reproduce hands all of the parent's money to a new child and halves the
// parent's health.
func (pop *Pop) reproduce() *Pop {
	child := &Pop{Money: pop.Money, Health: ChildHealth}
	pop.Money = 0
	pop.Health /= 2
	return child
}

// tick buys the day's food and clothes, offers labour, and moves health
// depending on whether minimum needs were met.
func (pop *Pop) tick(ind *Industry, market *economy.Network) {
	budgetFood := pop.Money * FoodBudgetPct / 100
	budgetClothes := pop.Money * ClothesBudgetPct / 100

	foodToBuy := budgetFood / market.Price(economy.Food)
	clothesToBuy := budgetClothes / market.Price(economy.Clothes)

	food := buyCommodities(ind, market, economy.ProductFood, foodToBuy)
	clothes := buyCommodities(ind, market, economy.ProductClothes, clothesToBuy)
	pop.Money -= food.Cost + clothes.Cost

	pop.Labour = LabourOutput
	publishForSale(market, economy.Labour, pop.Labour)

	if food.Amount >= MinFood && clothes.Amount >= MinClothes {
		pop.Health++
	} else {
		pop.Health--
	}
}
