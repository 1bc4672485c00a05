// internal/trade/errors.go
package trade

import (
	"errors"
	"fmt"
)

// FailureCode classifies why a trade operation could not complete.
type FailureCode string

const (
	FailInsufficientBalance      FailureCode = "insufficient_balance"
	FailInsufficientTokenBalance FailureCode = "insufficient_token_balance"
	// FailPreflight covers infrastructure failures while sizing a trade,
	// as opposed to a determination that the balance cannot satisfy it.
	FailPreflight FailureCode = "preflight_error"
	FailNoRoute                  FailureCode = "no_route"
	FailBuild                    FailureCode = "build_error"
	FailSubmit                   FailureCode = "submit_error"
	FailConfirmation             FailureCode = "confirmation_error"
	FailWalletNotFound           FailureCode = "wallet_not_found"
	FailForbiddenWallet          FailureCode = "forbidden_wallet"
)

// Failure carries a typed code plus the underlying provider error
// verbatim for diagnostics. Nothing escapes a component boundary as a
// raw error: everything is converted into this shape and then into a
// structured result.
type Failure struct {
	Code  FailureCode
	Cause error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Code, f.Cause)
	}
	return string(f.Code)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func newFailure(code FailureCode, cause error) *Failure {
	return &Failure{Code: code, Cause: cause}
}

// failureCode extracts the code from err, unwrapping as needed,
// defaulting to fallback.
func failureCode(err error, fallback FailureCode) FailureCode {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code
	}
	return fallback
}
