// internal/fund/errors.go
package fund

import "fmt"

// FailCode identifies a rejected operation. Codes 200..221 are carried
// over from the on-chain contract this core replaces, so downstream
// consumers keep their existing mappings; 222+ are new codes for
// failures the contract surfaced as a bare false.
type FailCode int32

const (
	CodeNone                  FailCode = 0
	CodeUnauthorized          FailCode = 200
	CodeInsufficientBalance   FailCode = 202
	CodeInvalidAllocation     FailCode = 203
	CodeInvalidNav            FailCode = 205
	CodeInvalidShareAmount    FailCode = 206
	CodeOracleNotVerified     FailCode = 209
	CodeAssetNotVerified      FailCode = 210
	CodeYieldNotAccrued       FailCode = 211
	CodeAboveMaximum          FailCode = 212
	CodeBelowMinimum          FailCode = 213
	CodeFundsLocked           FailCode = 215
	CodeInvalidAssetContract  FailCode = 217
	CodeInvalidUser           FailCode = 221
	CodeAuthorityAlreadyBound FailCode = 222
	CodeInvalidAuthority      FailCode = 223
	CodeInvalidParameter      FailCode = 224
)

// Error is the discriminated failure value every public operation can
// return. No operation partially commits on failure: validation precedes
// any mutation, so an Error always means zero state change.
type Error struct {
	Code FailCode
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d): %s", e.Code.String(), e.Code, e.Msg)
}

// Is lets errors.Is match on the sentinel values below regardless of Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errf builds a coded failure with a formatted message.
func Errf(code FailCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel failures for errors.Is checks.
var (
	ErrUnauthorized          = &Error{Code: CodeUnauthorized, Msg: "caller not authorized"}
	ErrInsufficientBalance   = &Error{Code: CodeInsufficientBalance, Msg: "insufficient share balance"}
	ErrInvalidAllocation     = &Error{Code: CodeInvalidAllocation, Msg: "allocation exceeds pool NAV"}
	ErrInvalidNav            = &Error{Code: CodeInvalidNav, Msg: "invalid NAV"}
	ErrInvalidShareAmount    = &Error{Code: CodeInvalidShareAmount, Msg: "share amount must be positive"}
	ErrOracleNotVerified     = &Error{Code: CodeOracleNotVerified, Msg: "oracle attestation not verified"}
	ErrAssetNotVerified      = &Error{Code: CodeAssetNotVerified, Msg: "asset is not verified"}
	ErrYieldNotAccrued       = &Error{Code: CodeYieldNotAccrued, Msg: "no yield accrued since last claim"}
	ErrAboveMaximum          = &Error{Code: CodeAboveMaximum, Msg: "amount above maximum investment"}
	ErrBelowMinimum          = &Error{Code: CodeBelowMinimum, Msg: "amount below minimum investment"}
	ErrFundsLocked           = &Error{Code: CodeFundsLocked, Msg: "funds are time-locked"}
	ErrInvalidAssetContract  = &Error{Code: CodeInvalidAssetContract, Msg: "unknown asset contract"}
	ErrInvalidUser           = &Error{Code: CodeInvalidUser, Msg: "yield may only be claimed by the beneficiary"}
	ErrAuthorityAlreadyBound = &Error{Code: CodeAuthorityAlreadyBound, Msg: "authority already bound"}
	ErrInvalidAuthority      = &Error{Code: CodeInvalidAuthority, Msg: "authority may not be the null identity"}
	ErrInvalidParameter      = &Error{Code: CodeInvalidParameter, Msg: "parameter value out of range"}
)

func (c FailCode) String() string {
	switch c {
	case CodeNone:
		return "ok"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeInsufficientBalance:
		return "insufficient_balance"
	case CodeInvalidAllocation:
		return "invalid_allocation"
	case CodeInvalidNav:
		return "invalid_nav"
	case CodeInvalidShareAmount:
		return "invalid_share_amount"
	case CodeOracleNotVerified:
		return "oracle_not_verified"
	case CodeAssetNotVerified:
		return "asset_not_verified"
	case CodeYieldNotAccrued:
		return "yield_not_accrued"
	case CodeAboveMaximum:
		return "above_maximum"
	case CodeBelowMinimum:
		return "below_minimum"
	case CodeFundsLocked:
		return "funds_locked"
	case CodeInvalidAssetContract:
		return "invalid_asset_contract"
	case CodeInvalidUser:
		return "invalid_user"
	case CodeAuthorityAlreadyBound:
		return "authority_already_bound"
	case CodeInvalidAuthority:
		return "invalid_authority"
	case CodeInvalidParameter:
		return "invalid_parameter"
	default:
		return "unknown"
	}
}
