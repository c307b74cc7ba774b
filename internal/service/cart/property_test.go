package cart_test

import (
	"context"
	"strconv"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/service/cart"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func guestManager() *cart.Manager {
	m := cart.New(nil, &memStore{}, nil)
	_ = m.Start(context.Background(), false)
	return m
}

// keyFor maps a small integer onto a product/variant pair so generated
// sequences collide often.
func keyFor(k int) domain.LineKey {
	key := domain.LineKey{ProductID: domain.ID(strconv.Itoa(k / 2))}
	if k%2 == 1 {
		key.VariantID = "red"
	}
	return key
}

// Property: no sequence of adds produces two lines with the same key, and
// each line's quantity is the sum of the quantities added for its key.
func TestProperty_LineKeysStayUnique(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("adds coalesce by product and variant", prop.ForAll(
		func(keys []int, quantities []int) bool {
			ctx := context.Background()
			m := guestManager()
			want := map[domain.LineKey]int{}
			for i := 0; i < len(keys) && i < len(quantities); i++ {
				key := keyFor(keys[i])
				if err := m.AddLine(ctx, cart.AddLineInput{ProductID: key.ProductID, VariantID: key.VariantID, Quantity: quantities[i]}); err != nil {
					return false
				}
				want[key] += quantities[i]
			}

			seen := map[domain.LineKey]bool{}
			for _, line := range m.Lines() {
				if seen[line.Key()] || want[line.Key()] != line.Quantity {
					return false
				}
				seen[line.Key()] = true
			}
			return len(seen) == len(want)
		},
		gen.SliceOf(gen.IntRange(0, 7)),
		gen.SliceOf(gen.IntRange(1, 5)),
	))

	properties.TestingRun(t)
}

// Property: the total is the sum of (discounted ?? unit) price times quantity.
func TestProperty_TotalMatchesLines(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("total equals the sum of effective subtotals", prop.ForAll(
		func(prices []int64, discounts []int64, quantities []int) bool {
			ctx := context.Background()
			m := guestManager()
			want := decimal.Zero
			n := min(len(prices), len(discounts), len(quantities))
			for i := 0; i < n; i++ {
				in := cart.AddLineInput{ProductID: domain.ID(strconv.Itoa(i)), Quantity: quantities[i], UnitPrice: price(prices[i])}
				effective := prices[i]
				if discounts[i] >= 0 {
					in.DiscountedUnitPrice = price(discounts[i])
					effective = discounts[i]
				}
				if err := m.AddLine(ctx, in); err != nil {
					return false
				}
				want = want.Add(decimal.NewFromInt(effective * int64(quantities[i])))
			}
			total := m.Total()
			return total.Equal(want) && !total.IsNegative()
		},
		gen.SliceOf(gen.Int64Range(0, 10000)),
		gen.SliceOf(gen.Int64Range(-1, 10000)),
		gen.SliceOf(gen.IntRange(1, 9)),
	))

	properties.TestingRun(t)
}

// Property: quantities below one never change a line.
func TestProperty_QuantityFloor(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("update below one is a no-op", prop.ForAll(
		func(initial int, update int) bool {
			ctx := context.Background()
			m := guestManager()
			key := domain.LineKey{ProductID: "1", VariantID: "red"}
			if err := m.AddLine(ctx, cart.AddLineInput{ProductID: key.ProductID, VariantID: key.VariantID, Quantity: initial}); err != nil {
				return false
			}
			if err := m.UpdateQuantity(ctx, key, update); err != nil {
				return false
			}
			lines := m.Lines()
			return len(lines) == 1 && lines[0].Quantity == initial
		},
		gen.IntRange(1, 50),
		gen.IntRange(-1000, 0),
	))

	properties.TestingRun(t)
}
