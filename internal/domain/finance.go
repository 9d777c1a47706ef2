package domain

// Financials are the values derived from a job's quoted cost and invoiced amount
type Financials struct {
	Profit float64
	Margin float64
}

// Derive computes profit and margin. Margin is a percentage of the invoiced
// amount and is 0 when nothing was invoiced.
func Derive(cost, invoiced float64) Financials {
	profit := invoiced - cost
	return Financials{
		Profit: profit,
		Margin: percentOf(profit, invoiced),
	}
}

// CostVariance compares the realized cost of a job with its quote
type CostVariance struct {
	Quoted          float64
	Actual          float64
	Variance        float64
	VariancePercent float64
}

// Variance returns actual - quoted and its share of the quote
func Variance(quoted, actual float64) CostVariance {
	v := actual - quoted
	return CostVariance{
		Quoted:          quoted,
		Actual:          actual,
		Variance:        v,
		VariancePercent: percentOf(v, quoted),
	}
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
