// Shared transaction plumbing between consumers, producers and markets.
package engine

import (
	"fmt"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/entropy"
)

// Purchase is the outcome of a cleared order: units filled and what they cost.
type Purchase struct {
	Amount int
	Cost   int
}

// Inheritance is money taken from a destroyed agent, owed to a survivor.
type Inheritance int

// fillOrder walks a pool of n sellers once, starting at a uniformly random
// offset and wrapping around, taking from each until target units are
// filled. take hands seller i a request for want units and returns how many
// it actually gave. The random start keeps low-index sellers from being
// favoured every day.
func fillOrder(rng entropy.Source, n, target int, take func(i, want int) int) int {
	if n <= 0 {
		panic("engine: order filled against an empty pool")
	}

	offset := rng.Intn(n)
	bought := 0
	for k := 0; k < n; k++ {
		idx := (offset + k) % n
		bought += take(idx, target-bought)
		if bought == target {
			break
		}
	}
	return bought
}

// buyLabour records demand for target units of labour and fills it from
// the population at today's labour price.
func buyLabour(pop *Population, market *economy.Network, target int) Purchase {
	market.IncDemand(economy.Labour, target)
	if pop.Count() == 0 {
		return Purchase{}
	}
	return pop.BuyLabour(target, market.Price(economy.Labour))
}

// buyCommodities records demand for target units of p and fills it from
// the industry at today's price for p.
func buyCommodities(ind *Industry, market *economy.Network, p economy.Product, target int) Purchase {
	market.IncDemand(p.Good(), target)
	if ind.Count() == 0 {
		return Purchase{}
	}
	return ind.Buy(target, p, market.Price(p.Good()))
}

// publishForSale offers units of g on today's market.
func publishForSale(market *economy.Network, g economy.Good, units int) {
	market.IncSupply(g, units)
}

func mustNonNegative(what string, v int) {
	if v < 0 {
		panic(fmt.Sprintf("engine: negative %s %d", what, v))
	}
}
