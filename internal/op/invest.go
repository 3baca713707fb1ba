// internal/op/invest.go
package op

import (
	"github.com/google/uuid"

	"GreenFund/internal/fund"
)

// InvestSubmitted deposits base currency into the pool in exchange for
// newly issued shares.
type InvestSubmitted struct {
	OpID        uuid.UUID
	Investor    fund.AccountID
	Amount      fund.Currency // base-currency deposit, fixed-point
	BlockHeight fund.Height
	Sequence    int64
}

func (i *InvestSubmitted) IdempotencyKey() string {
	return i.OpID.String()
}

func (i *InvestSubmitted) OpType() OpType {
	return OpTypeInvest
}

func (i *InvestSubmitted) Caller() fund.AccountID {
	return i.Investor
}

func (i *InvestSubmitted) Height() fund.Height {
	return i.BlockHeight
}

func (i *InvestSubmitted) SourceSequence() int64 {
	return i.Sequence
}

// WithdrawSubmitted redeems shares for a proportional claim on pool NAV
// plus the yield portion.
type WithdrawSubmitted struct {
	OpID        uuid.UUID
	Investor    fund.AccountID
	Shares      fund.Shares
	BlockHeight fund.Height
	Sequence    int64
}

func (w *WithdrawSubmitted) IdempotencyKey() string {
	return w.OpID.String()
}

func (w *WithdrawSubmitted) OpType() OpType {
	return OpTypeWithdraw
}

func (w *WithdrawSubmitted) Caller() fund.AccountID {
	return w.Investor
}

func (w *WithdrawSubmitted) Height() fund.Height {
	return w.BlockHeight
}

func (w *WithdrawSubmitted) SourceSequence() int64 {
	return w.Sequence
}
