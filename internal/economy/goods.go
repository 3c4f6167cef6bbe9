// Package economy provides the tradeable goods and the per-good markets
// that clear once per simulated day.
package economy

import "fmt"

// Good enumerates the tradeable categories. The set is closed.
type Good uint8

const (
	Food    Good = iota // Consumed by pops, made by factories
	Clothes             // Consumed by pops, made by factories
	Labour              // Offered by pops, bought by factories
)

// Goods lists every good in report order.
var Goods = [...]Good{Food, Clothes, Labour}

var goodNames = map[Good]string{
	Food:    "Food",
	Clothes: "Clothes",
	Labour:  "Labour",
}

// String returns the display name of the good.
func (g Good) String() string {
	if name, ok := goodNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Good(%d)", uint8(g))
}

// ParseGood maps a display name back to its good.
func ParseGood(name string) (Good, error) {
	for g, n := range goodNames {
		if n == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown good %q", name)
}

// Product is the subset of goods a factory can make. Labour is not a
// product, so a factory holding a Product can never be asked to produce it.
type Product struct {
	good Good
}

// Products available to factories.
var (
	ProductFood    = Product{good: Food}
	ProductClothes = Product{good: Clothes}
)

// Products lists every product in report order.
var Products = [...]Product{ProductFood, ProductClothes}

// ProductOf returns the product for g, or false when g cannot be produced.
func ProductOf(g Good) (Product, bool) {
	for _, p := range Products {
		if p.good == g {
			return p, true
		}
	}
	return Product{}, false
}

// Good returns the market good this product is sold as.
func (p Product) Good() Good { return p.good }

func (p Product) String() string { return p.good.String() }

// Equal reports whether p and o are the same product.
func (p Product) Equal(o Product) bool { return p.good == o.good }

// MarshalText encodes the good by name.
func (g Good) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a good name.
func (g *Good) UnmarshalText(b []byte) error {
	parsed, err := ParseGood(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// MarshalText encodes the product by its good name.
func (p Product) MarshalText() ([]byte, error) {
	return p.good.MarshalText()
}

// UnmarshalText decodes a product name, rejecting goods that cannot be made.
func (p *Product) UnmarshalText(b []byte) error {
	var g Good
	if err := g.UnmarshalText(b); err != nil {
		return err
	}
	parsed, ok := ProductOf(g)
	if !ok {
		return fmt.Errorf("%s cannot be produced", g)
	}
	*p = parsed
	return nil
}
