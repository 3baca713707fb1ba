// internal/settlement/recorder.go
package settlement

import (
	"GreenFund/internal/fund"
)

// TransferRecord is one recorded currency movement.
type TransferRecord struct {
	Amount fund.Currency
	From   *fund.AccountID // nil = pool
	To     *fund.AccountID // nil = pool
}

// MintRecord is one recorded share mint or burn.
type MintRecord struct {
	Amount  fund.Shares
	Account fund.AccountID
	Burn    bool
}

// Recorder implements Treasury and TokenMinter by recording every
// effect in order. It backs tests and any deployment where the real
// transfer rails sit behind the outbound event stream instead of a
// synchronous call.
type Recorder struct {
	Transfers []TransferRecord
	Mints     []MintRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Transfer(amount fund.Currency, from, to *fund.AccountID) error {
	r.Transfers = append(r.Transfers, TransferRecord{Amount: amount, From: from, To: to})
	return nil
}

func (r *Recorder) Mint(amount fund.Shares, to fund.AccountID) error {
	r.Mints = append(r.Mints, MintRecord{Amount: amount, Account: to})
	return nil
}

func (r *Recorder) Burn(amount fund.Shares, from fund.AccountID) error {
	r.Mints = append(r.Mints, MintRecord{Amount: amount, Account: from, Burn: true})
	return nil
}

// Reset clears all recorded effects.
func (r *Recorder) Reset() {
	r.Transfers = nil
	r.Mints = nil
}
