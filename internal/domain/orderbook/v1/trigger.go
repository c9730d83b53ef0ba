package orderbookv1

// TriggerRule decides whether a trade print fires a pending stop order.
type TriggerRule string

const (
	// TriggerAtOrBelow fires when the trade price is at or below the threshold.
	TriggerAtOrBelow TriggerRule = "at_or_below"
	// TriggerAtOrAbove fires when the trade price is at or above the threshold.
	TriggerAtOrAbove TriggerRule = "at_or_above"
)

// Fires reports whether a trade at price satisfies the rule for threshold.
func (r TriggerRule) Fires(price, threshold float64) bool {
	if r == TriggerAtOrAbove {
		return price >= threshold
	}
	return price <= threshold
}

// TriggerPolicy holds the trigger rule per stop pool. The rule for the buy
// pool is consulted on buy-taker prints, the sell rule on sell-taker prints.
type TriggerPolicy struct {
	Buy  TriggerRule
	Sell TriggerRule
}

// RuleFor returns the rule for the stop pool on the given side.
func (p TriggerPolicy) RuleFor(side Side) TriggerRule {
	if side == SideBuy {
		return p.Buy
	}
	return p.Sell
}

// DefaultTriggerPolicy fires both sides at or below the threshold, per the
// instrument's stated domain rules. Do not change the default without a
// product decision.
func DefaultTriggerPolicy() TriggerPolicy {
	return TriggerPolicy{Buy: TriggerAtOrBelow, Sell: TriggerAtOrBelow}
}

// ConventionalTriggerPolicy is the textbook rule set: stop-buys fire at or
// above the threshold, stop-sells at or below.
func ConventionalTriggerPolicy() TriggerPolicy {
	return TriggerPolicy{Buy: TriggerAtOrAbove, Sell: TriggerAtOrBelow}
}
