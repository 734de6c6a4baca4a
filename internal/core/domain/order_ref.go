package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const orderRefSeparator = "_"

// OrderRef correlates a gateway invoice with a local transaction without a
// lookup table: the buyer, the gift and the price the invoice was issued for.
type OrderRef struct {
	BuyerID    int64
	ItemID     int64
	PriceMinor int64
}

func NewOrderRef(buyerID, itemID, priceMinor int64) (OrderRef, error) {
	if buyerID <= 0 || itemID <= 0 || priceMinor <= 0 {
		return OrderRef{}, fmt.Errorf("%w: fields must be positive (buyer=%d item=%d price=%d)",
			ErrMalformedReference, buyerID, itemID, priceMinor)
	}
	return OrderRef{BuyerID: buyerID, ItemID: itemID, PriceMinor: priceMinor}, nil
}

// Encode renders the reference as "<buyer>_<item>_<priceMinor>".
func (r OrderRef) Encode() string {
	return strconv.FormatInt(r.BuyerID, 10) + orderRefSeparator +
		strconv.FormatInt(r.ItemID, 10) + orderRefSeparator +
		strconv.FormatInt(r.PriceMinor, 10)
}

func (r OrderRef) String() string {
	return r.Encode()
}

// ParseOrderRef accepts exactly the tokens Encode produces.
func ParseOrderRef(token string) (OrderRef, error) {
	parts := strings.Split(token, orderRefSeparator)
	if len(parts) != 3 {
		return OrderRef{}, fmt.Errorf("%w: %q has %d segments", ErrMalformedReference, token, len(parts))
	}

	var fields [3]int64
	for i, part := range parts {
		v, err := parseSegment(part)
		if err != nil {
			return OrderRef{}, fmt.Errorf("%w: %q segment %d: %v", ErrMalformedReference, token, i, err)
		}
		fields[i] = v
	}

	return NewOrderRef(fields[0], fields[1], fields[2])
}

func parseSegment(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q", c)
		}
	}
	// leading zeros would give a second spelling of the same value
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("leading zero")
	}
	return strconv.ParseInt(s, 10, 64)
}
