package models

// ResultCode is the stable machine-readable outcome of a wallet operation
type ResultCode string

const (
	CodeOK                  ResultCode = "ok"
	CodeInvalidAmount       ResultCode = "invalid_amount"
	CodeInvalidDestination  ResultCode = "invalid_destination"
	CodeInsufficientBalance ResultCode = "insufficient_balance"
	CodeInsufficientCredit  ResultCode = "insufficient_credit"
	CodeWindowClosed        ResultCode = "window_closed"
	CodePoolExhausted       ResultCode = "pool_exhausted"
)

// Result represents the outcome of a consumption or withdrawal request.
// Business-rule rejections are results, not errors.
type Result struct {
	Success    bool               `json:"success"`
	Code       ResultCode         `json:"code"`
	Message    string             `json:"message,omitempty"`
	UserId     string             `json:"user_id,omitempty"`
	Requested  int64              `json:"requested"`
	Available  int64              `json:"available"`
	Wallet     *WalletSnapshot    `json:"wallet,omitempty"`
	Withdrawal *WithdrawalRequest `json:"withdrawal,omitempty"`
	Operation  *OperationRecord   `json:"operation,omitempty"`
}

// Rejected builds a failed result for a business-rule outcome.
func Rejected(code ResultCode, userId string, requested, available int64, message string) *Result {
	return &Result{
		Success:   false,
		Code:      code,
		Message:   message,
		UserId:    userId,
		Requested: requested,
		Available: available,
	}
}
