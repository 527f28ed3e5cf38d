package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeInvalidState Code = "INVALID_STATE"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain access
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumSubscribeFailed  Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeFeeDataUnavailable       Code = "FEE_DATA_UNAVAILABLE"
)

// Route encoding and quoting
const (
	CodeShapeMismatch  Code = "SHAPE_MISMATCH"
	CodeInvalidAddress Code = "INVALID_ADDRESS"
	CodeInvalidFeeTier Code = "INVALID_FEE_TIER"
	CodeQuoteFailed    Code = "QUOTE_FAILED"
	CodeQuoteReverted  Code = "QUOTE_REVERTED"
	CodeNoRoute        Code = "NO_ROUTE"
	CodeInvalidQuote   Code = "INVALID_QUOTE"
	CodeContractCall   Code = "CONTRACT_CALL_FAILED"
	CodeInvalidAmount  Code = "INVALID_AMOUNT"
)

// Execution
const (
	CodeDryRunRejected    Code = "DRY_RUN_REJECTED"
	CodeExecutionReverted Code = "EXECUTION_REVERTED"
	CodeExecutionFailed   Code = "EXECUTION_FAILED"
	CodeReceiptTimeout    Code = "RECEIPT_TIMEOUT"
	CodeSignerUnavailable Code = "SIGNER_UNAVAILABLE"
	CodeExecutorNotOwner  Code = "EXECUTOR_NOT_OWNER"
)

// Token universe and journal
const (
	CodeTokenListFetchFailed Code = "TOKEN_LIST_FETCH_FAILED"
	CodeTokenListInvalid     Code = "TOKEN_LIST_INVALID"
	CodeJournalWriteFailed   Code = "JOURNAL_WRITE_FAILED"
	CodeJournalUnavailable   Code = "JOURNAL_UNAVAILABLE"
)

// Circuit breaker errors
const (
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
