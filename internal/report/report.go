// Package report renders a day's snapshot as a plain-text summary.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
)

// Write renders snap to out.
func Write(out io.Writer, snap engine.Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Day %d ===\n", snap.Day)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Good\tPrice\tTrend\tDemand\tSupply\t")
	for _, m := range snap.Markets {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n",
			m.Good, m.Price, trend(m.Velocity),
			humanize.Comma(int64(m.Demand)), humanize.Comma(int64(m.Supply)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(&b, "Population: %s\n", humanize.Comma(int64(snap.Population)))
	var factories []string
	for _, p := range economy.Products {
		factories = append(factories, fmt.Sprintf("%s %d", p, snap.Factories[p.String()]))
	}
	fmt.Fprintf(&b, "Factories: %s\n", strings.Join(factories, ", "))
	fmt.Fprintf(&b, "Money supply: %s (pops %s, factories %s)\n",
		humanize.Comma(int64(snap.TotalMoney())),
		humanize.Comma(int64(snap.ConsumerMoney)),
		humanize.Comma(int64(snap.ProducerMoney)))

	_, err := io.WriteString(out, b.String())
	return err
}

// trend renders a price velocity with an explicit sign.
func trend(v float32) string {
	return fmt.Sprintf("%+.2f", v)
}
