package core

// Summary holds the headline totals for a transaction list, resolved
// into a single display currency.
type Summary struct {
	Currency      string
	TotalIncome   float64
	TotalExpenses float64
	NetAmount     float64
}

// CategoryAmount is an expense sum for one category with its share of
// the overall expense total.
type CategoryAmount struct {
	Name       string
	Amount     float64
	Percentage float64
}

// BudgetAdherence partitions budgets into under and over by strict
// spent > limit. A budget never appears in both slices.
type BudgetAdherence struct {
	Under []Budget
	Over  []Budget
}

// Summarize computes income, expense, and net totals over the list in
// the target currency. The identity income - expenses == net holds
// exactly.
func Summarize(list []Transaction, currency string, rates Rates) Summary {
	s := Summary{Currency: currency}
	for _, t := range list {
		amount := t.AmountIn(currency, rates)
		switch t.Type {
		case TypeIncome:
			s.TotalIncome += amount
		case TypeExpense:
			s.TotalExpenses += amount
		}
	}
	s.NetAmount = s.TotalIncome - s.TotalExpenses
	return s
}

// BreakdownByCategory groups expenses by category and computes each
// category's share of the expense total. Categories appear in
// first-seen input order; the aggregator never re-sorts, ordering is
// the caller's concern. Display layers truncate to their own limits.
func BreakdownByCategory(list []Transaction, currency string, rates Rates) []CategoryAmount {
	var order []string
	sums := make(map[string]float64)
	var total float64

	for _, t := range list {
		if t.Type != TypeExpense {
			continue
		}
		amount := t.AmountIn(currency, rates)
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += amount
		total += amount
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		ca := CategoryAmount{Name: name, Amount: sums[name]}
		if total > 0 {
			ca.Percentage = sums[name] / total * 100
		}
		out = append(out, ca)
	}
	return out
}

// PartitionBudgets splits budgets into under and over budget by strict
// comparison.
func PartitionBudgets(budgets []Budget) BudgetAdherence {
	var a BudgetAdherence
	for _, b := range budgets {
		if b.Over() {
			a.Over = append(a.Over, b)
		} else {
			a.Under = append(a.Under, b)
		}
	}
	return a
}
