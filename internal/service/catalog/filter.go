package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 12
	MaxLimit     = 60
)

type Sort string

const (
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Filter is the product listing state carried in the page URL.
type Filter struct {
	Q        string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     Sort
	Page     int
	Limit    int
}

// ParseFilter reads q, brand, minPrice, maxPrice, sort, page and limit.
// Out-of-range page and limit values are clamped; malformed numbers and an
// inverted price range are rejected.
func ParseFilter(v url.Values) (Filter, error) {
	f := Filter{
		Q:     strings.TrimSpace(v.Get("q")),
		Brand: strings.TrimSpace(v.Get("brand")),
		Sort:  SortNameAsc,
		Page:  1,
		Limit: DefaultLimit,
	}

	var err error
	if f.MinPrice, err = parsePrice(v, "minPrice"); err != nil {
		return Filter{}, err
	}
	if f.MaxPrice, err = parsePrice(v, "maxPrice"); err != nil {
		return Filter{}, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return Filter{}, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrInvalidFilter)
	}

	switch s := Sort(strings.ToLower(strings.TrimSpace(v.Get("sort")))); s {
	case "":
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		f.Sort = s
	default:
		return Filter{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, s)
	}

	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: page: %v", ErrInvalidFilter, err)
		}
		f.Page = max(n, 1)
	}
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: limit: %v", ErrInvalidFilter, err)
		}
		if n >= 1 {
			f.Limit = min(n, MaxLimit)
		}
	}
	return f, nil
}

func parsePrice(v url.Values, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidFilter, key)
	}
	return &d, nil
}

// Values renders f back into query parameters, omitting defaults.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Q != "" {
		v.Set("q", f.Q)
	}
	if f.Brand != "" {
		v.Set("brand", f.Brand)
	}
	if f.MinPrice != nil {
		v.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Sort != "" && f.Sort != SortNameAsc {
		v.Set("sort", string(f.Sort))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit != 0 && f.Limit != DefaultLimit {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

func (f Filter) match(p domain.Product) bool {
	if f.Q != "" {
		q := strings.ToLower(f.Q)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Brand), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	price := p.EffectivePrice()
	if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

type Page struct {
	Results []domain.Product `json:"results"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Pages   int              `json:"pages"`
}

// Apply filters, sorts and paginates products. The input slice is not
// modified.
func Apply(products []domain.Product, f Filter) Page {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.match(p) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, f.Sort)

	page := Page{Total: len(matched), Page: f.Page, Limit: f.Limit}
	page.Pages = (page.Total + f.Limit - 1) / f.Limit
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		page.Results = []domain.Product{}
		return page
	}
	end := min(start+f.Limit, len(matched))
	page.Results = matched[start:end]
	return page
}

func sortProducts(products []domain.Product, s Sort) {
	byName := func(a, b domain.Product) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	}
	var cmp func(a, b domain.Product) int
	switch s {
	case SortNameDesc:
		cmp = func(a, b domain.Product) int { return byName(b, a) }
	case SortPriceAsc:
		cmp = func(a, b domain.Product) int {
			if c := a.EffectivePrice().Cmp(b.EffectivePrice()); c != 0 {
				return c
			}
			return byName(a, b)
		}
	case SortPriceDesc:
		cmp = func(a, b domain.Product) int {
			if c := b.EffectivePrice().Cmp(a.EffectivePrice()); c != 0 {
				return c
			}
			return byName(a, b)
		}
	default:
		cmp = byName
	}
	slices.SortStableFunc(products, cmp)
}
