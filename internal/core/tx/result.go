package tx

import "fmt"

// Result represents an instruction result code.
type Result int

// Result codes, organized by category: tes (success), tec (rejected against
// ledger state), tem (malformed), tef (internal failure). Every non-tes
// code aborts the enclosing transaction with nothing persisted; there is no
// partial application.
const (
	// tesSUCCESS
	TesSUCCESS Result = 0

	// tec codes (100-199): the instruction was well formed but the ledger
	// state rejected it.
	TecALREADY_EXISTS      Result = 100
	TecNOT_FOUND           Result = 101
	TecUNAUTHORIZED        Result = 102
	TecINVALID_OWNER       Result = 103
	TecINVALID_METADATA    Result = 104
	TecPAYMENT_MISMATCH    Result = 105
	TecARITHMETIC_RANGE    Result = 106
	TecINSUFFICIENT_FUNDS  Result = 107
	TecFROZEN              Result = 108
	TecDELEGATE_MISSING    Result = 109
	TecACCOUNT_NOT_FOUND   Result = 110
	TecVAULT_NOT_EMPTY     Result = 111

	// tef codes (-199 to -100): internal failure, nothing applied.
	TefFAILURE  Result = -199
	TefINTERNAL Result = -198

	// tem codes (-299 to -200): the instruction was malformed.
	TemMALFORMED   Result = -299
	TemBAD_PRICE   Result = -298
	TemBAD_FEE     Result = -297
	TemBAD_NAME    Result = -296
	TemBAD_AMOUNT  Result = -295
	TemBAD_ACCOUNT Result = -294
	TemINVALID     Result = -293
)

// resultNames maps result codes to their canonical string form.
var resultNames = map[Result]string{
	TesSUCCESS:            "tesSUCCESS",
	TecALREADY_EXISTS:     "tecALREADY_EXISTS",
	TecNOT_FOUND:          "tecNOT_FOUND",
	TecUNAUTHORIZED:       "tecUNAUTHORIZED",
	TecINVALID_OWNER:      "tecINVALID_OWNER",
	TecINVALID_METADATA:   "tecINVALID_METADATA",
	TecPAYMENT_MISMATCH:   "tecPAYMENT_MISMATCH",
	TecARITHMETIC_RANGE:   "tecARITHMETIC_RANGE",
	TecINSUFFICIENT_FUNDS: "tecINSUFFICIENT_FUNDS",
	TecFROZEN:             "tecFROZEN",
	TecDELEGATE_MISSING:   "tecDELEGATE_MISSING",
	TecACCOUNT_NOT_FOUND:  "tecACCOUNT_NOT_FOUND",
	TecVAULT_NOT_EMPTY:    "tecVAULT_NOT_EMPTY",
	TefFAILURE:            "tefFAILURE",
	TefINTERNAL:           "tefINTERNAL",
	TemMALFORMED:          "temMALFORMED",
	TemBAD_PRICE:          "temBAD_PRICE",
	TemBAD_FEE:            "temBAD_FEE",
	TemBAD_NAME:           "temBAD_NAME",
	TemBAD_AMOUNT:         "temBAD_AMOUNT",
	TemBAD_ACCOUNT:        "temBAD_ACCOUNT",
	TemINVALID:            "temINVALID",
}

// resultMessages maps result codes to human-readable descriptions.
var resultMessages = map[Result]string{
	TesSUCCESS:            "The instruction was applied.",
	TecALREADY_EXISTS:     "A record already exists at the derived address.",
	TecNOT_FOUND:          "The referenced record does not exist.",
	TecUNAUTHORIZED:       "The signer is not the recorded owner or admin.",
	TecINVALID_OWNER:      "The asset is not held by the claimed seller.",
	TecINVALID_METADATA:   "The asset metadata is missing or malformed.",
	TecPAYMENT_MISMATCH:   "A required payment instruction is missing, misdirected, or undersized.",
	TecARITHMETIC_RANGE:   "A price or fee computation would overflow.",
	TecINSUFFICIENT_FUNDS: "The source account cannot cover the transfer.",
	TecFROZEN:             "The token account is frozen.",
	TecDELEGATE_MISSING:   "The expected transfer delegation is not in place.",
	TecACCOUNT_NOT_FOUND:  "The source account does not exist.",
	TecVAULT_NOT_EMPTY:    "The vault still holds a balance.",
	TefFAILURE:            "The instruction failed to apply.",
	TefINTERNAL:           "An internal error occurred while applying the instruction.",
	TemMALFORMED:          "The instruction is malformed.",
	TemBAD_PRICE:          "The price is zero or otherwise invalid.",
	TemBAD_FEE:            "The fee rate is out of range.",
	TemBAD_NAME:           "The marketplace name is empty or too long.",
	TemBAD_AMOUNT:         "The amount is zero or otherwise invalid.",
	TemBAD_ACCOUNT:        "An account field is missing or malformed.",
	TemINVALID:            "The instruction does not apply to this record.",
}

// String returns the canonical code name, e.g. "tecPAYMENT_MISMATCH".
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Message returns a human-readable description of the result.
func (r Result) Message() string {
	if msg, ok := resultMessages[r]; ok {
		return msg
	}
	return "Unknown result code."
}

// IsSuccess reports whether the instruction was applied.
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec reports whether the code is a ledger-state rejection.
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTem reports whether the code indicates a malformed instruction.
func (r Result) IsTem() bool {
	return r >= -299 && r < -200
}

// IsTef reports whether the code indicates an internal failure.
func (r Result) IsTef() bool {
	return r >= -199 && r < -100
}
