package economy

import (
	"fmt"
	"math"
)

// Velocity adjustment factors for daily price discovery.
const (
	velocityAccelerate = 1.5  // Pressure kept its direction
	velocityReverse    = -0.5 // Pressure flipped: reverse and dampen
	velocityFloor      = 0.01 // Minimum magnitude while demand and supply differ
)

// Market holds price and day-scoped trade volume for one good.
// Price is authoritative for transaction cost; PriceF and Velocity carry
// the continuous price discovery state between days.
type Market struct {
	Good     Good    `json:"good"`
	Price    int     `json:"price"`
	PriceF   float32 `json:"price_f"`
	Velocity float32 `json:"velocity"`
	Demand   int     `json:"demand"`
	Supply   int     `json:"supply"`
}

// Open clamps the price to at least 1 and clears the day's volume.
func (m *Market) Open() {
	if m.Price < 1 {
		m.Price = 1
	}
	if m.PriceF < 1 {
		m.PriceF = 1
	}
	m.Demand = 0
	m.Supply = 0
}

// Close moves the price by a momentum term driven by the day's imbalance.
// The new integer price governs the next day's transactions.
func (m *Market) Close() {
	switch {
	case m.Demand > m.Supply:
		if m.Velocity > 0 {
			m.Velocity *= velocityAccelerate
		} else {
			m.Velocity *= velocityReverse
		}
		if m.Velocity < velocityFloor {
			m.Velocity = velocityFloor
		}
	case m.Demand < m.Supply:
		if m.Velocity < 0 {
			m.Velocity *= velocityAccelerate
		} else {
			m.Velocity *= velocityReverse
		}
		if m.Velocity > -velocityFloor {
			m.Velocity = -velocityFloor
		}
	default:
		m.Velocity = 0
	}

	m.PriceF += m.Velocity
	// Half-way values round away from zero.
	m.Price = int(math.Round(float64(m.PriceF)))
}

// Network is the set of markets, one per good.
type Network struct {
	markets map[Good]*Market
}

// NewNetwork creates a network with a zero-priced market per good.
// Prices become valid on the first Open.
func NewNetwork() *Network {
	markets := make(map[Good]*Market, len(Goods))
	for _, g := range Goods {
		markets[g] = &Market{Good: g}
	}
	return &Network{markets: markets}
}

// Open starts a trading day on every market.
func (n *Network) Open() {
	for _, m := range n.markets {
		m.Open()
	}
}

// Close ends the trading day and recomputes every price.
func (n *Network) Close() {
	for _, m := range n.markets {
		m.Close()
	}
}

// Price returns the price transactions settle at today.
func (n *Network) Price(g Good) int {
	return n.market(g).Price
}

// IncDemand records n units wanted of g today.
func (n *Network) IncDemand(g Good, units int) {
	if units < 0 {
		panic(fmt.Sprintf("economy: negative demand %d for %s", units, g))
	}
	n.market(g).Demand += units
}

// IncSupply records n units offered of g today.
func (n *Network) IncSupply(g Good, units int) {
	if units < 0 {
		panic(fmt.Sprintf("economy: negative supply %d for %s", units, g))
	}
	n.market(g).Supply += units
}

// Market returns a copy of the market state for g.
func (n *Network) Market(g Good) Market {
	return *n.market(g)
}

// Markets returns copies of every market in report order.
func (n *Network) Markets() []Market {
	out := make([]Market, 0, len(Goods))
	for _, g := range Goods {
		out = append(out, *n.market(g))
	}
	return out
}

func (n *Network) market(g Good) *Market {
	m, ok := n.markets[g]
	if !ok {
		panic(fmt.Sprintf("economy: no market for %s", g))
	}
	return m
}
