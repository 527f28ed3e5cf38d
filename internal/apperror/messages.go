package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput: "Invalid input provided",
	CodeInvalidState: "Invalid state for this operation",

	CodeConfigurationError: "Configuration error",

	CodeRateLimitExceeded: "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumSubscribeFailed:  "Failed to subscribe to new heads",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeFeeDataUnavailable:       "Fee data unavailable",

	CodeShapeMismatch:  "Token and fee sequence lengths do not match",
	CodeInvalidAddress: "Invalid token address",
	CodeInvalidFeeTier: "Fee tier does not fit in 24 bits",
	CodeQuoteFailed:    "Quote request failed",
	CodeQuoteReverted:  "Quote reverted",
	CodeNoRoute:        "No route",
	CodeInvalidQuote:   "Invalid quote data",
	CodeContractCall:   "Smart contract call failed",
	CodeInvalidAmount:  "Invalid amount",

	CodeDryRunRejected:    "Dry run rejected the plan",
	CodeExecutionReverted: "Execution transaction reverted",
	CodeExecutionFailed:   "Execution transaction failed",
	CodeReceiptTimeout:    "Timed out waiting for receipt",
	CodeSignerUnavailable: "Signing key unavailable",
	CodeExecutorNotOwner:  "Signer does not own the execution contract",

	CodeTokenListFetchFailed: "Failed to fetch token list",
	CodeTokenListInvalid:     "Token list is malformed",
	CodeJournalWriteFailed:   "Failed to write journal record",
	CodeJournalUnavailable:   "Journal store unavailable",

	CodeCircuitOpen: "Circuit breaker is open",
}
