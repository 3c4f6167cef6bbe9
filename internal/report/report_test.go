package report

import (
	"strings"
	"testing"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
)

func TestWrite(t *testing.T) {
	snap := engine.Snapshot{
		Day: 12,
		Markets: []economy.Market{
			{Good: economy.Food, Price: 14, Velocity: 0.75, Demand: 1200, Supply: 800},
			{Good: economy.Clothes, Price: 3, Velocity: -0.01, Demand: 40, Supply: 90},
			{Good: economy.Labour, Price: 1, Demand: 5, Supply: 5},
		},
		Population:    23,
		Factories:     map[string]int{"Food": 11, "Clothes": 9},
		ConsumerMoney: 120_000,
		ProducerMoney: 180_000,
	}

	var b strings.Builder
	if err := Write(&b, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := b.String()

	for _, want := range []string{
		"=== Day 12 ===",
		"+0.75",
		"-0.01",
		"+0.00",
		"1,200",
		"Population: 23",
		"Factories: Food 11, Clothes 9",
		"Money supply: 300,000 (pops 120,000, factories 180,000)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}

	lines := strings.Split(got, "\n")
	if !strings.Contains(lines[2], "Food") || !strings.Contains(lines[4], "Labour") {
		t.Errorf("goods out of order:\n%s", got)
	}
}
