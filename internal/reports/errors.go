package reports

import "errors"

var (
	ErrNotFound          = errors.New("report not found")
	ErrValidation        = errors.New("validation error")
	ErrStorage           = errors.New("storage failure")
	ErrContractViolation = errors.New("inference contract violation")
	ErrChartEntryInvalid = errors.New("chart entry invalid")
)

const (
	ErrorCodeUnsupportedFormat    = "unsupported_format"
	ErrorCodeEmptyInput           = "empty_input"
	ErrorCodeValidation           = "validation_error"
	ErrorCodeNotFound             = "not_found"
	ErrorCodeInferenceUnavailable = "inference_unavailable"
	ErrorCodeContractViolation    = "inference_contract_violation"
	ErrorCodeStorage              = "storage_error"
	ErrorCodeInternal             = "internal_error"
)
