package core

import (
	"GreenFund/internal/fund"
	"GreenFund/internal/op"
)

// ReceiptStatus discriminates accepted from rejected operations.
type ReceiptStatus int32

const (
	StatusAccepted ReceiptStatus = iota
	StatusRejected
)

func (s ReceiptStatus) String() string {
	if s == StatusAccepted {
		return "accepted"
	}
	return "rejected"
}

// Receipt is the durable outcome of one processed operation. Rejections
// get receipts too: a caller can always look up what happened to an
// operation they submitted, and replay reproduces the same rejections.
//
// Result carries the operation's return value: shares issued for invest,
// total payout for withdraw, yield paid for claims, allocation ID for
// allocate, the new NAV for oracle updates, zero for admin operations.
type Receipt struct {
	OpID    string         `json:"op_id"`
	OpType  op.OpType      `json:"op_type"`
	Caller  fund.AccountID `json:"caller"`
	Height  fund.Height    `json:"height"`
	Status  ReceiptStatus  `json:"status"`
	Code    fund.FailCode  `json:"code"`
	Result  int64          `json:"result"`
	Message string         `json:"message,omitempty"`
}
