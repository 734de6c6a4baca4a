package domain

import "github.com/shopspring/decimal"

type Summary struct {
	Total     int             `json:"total"`
	Pending   int             `json:"pending"`
	Paid      int             `json:"paid"`
	Failed    int             `json:"failed"`
	Gross     decimal.Decimal `json:"gross"`
	Fee       decimal.Decimal `json:"fee"`
	PaidGross decimal.Decimal `json:"paid_gross"`
	PaidFee   decimal.Decimal `json:"paid_fee"`
}

// Terminal counts transactions that reached paid or failed.
func (s Summary) Terminal() int {
	return s.Paid + s.Failed
}

func Summarize(txs []Transaction) Summary {
	s := Summary{
		Gross:     decimal.Zero,
		Fee:       decimal.Zero,
		PaidGross: decimal.Zero,
		PaidFee:   decimal.Zero,
	}
	for _, tx := range txs {
		s.Total++
		s.Gross = s.Gross.Add(tx.Gross)
		s.Fee = s.Fee.Add(tx.Fee)

		switch tx.Status {
		case TransactionStatusPending:
			s.Pending++
		case TransactionStatusPaid:
			s.Paid++
			s.PaidGross = s.PaidGross.Add(tx.Gross)
			s.PaidFee = s.PaidFee.Add(tx.Fee)
		case TransactionStatusFailed:
			s.Failed++
		}
	}
	return s
}
