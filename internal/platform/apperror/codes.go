package apperror

// ErrorCode is the system-level error category. It maps one-to-one onto the
// `error` field of JSON error responses.
type ErrorCode string

const (
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInternalError    ErrorCode = "INTERNAL_SERVER_ERROR"
)

// BusinessCode is the specific business reason behind an error. Two errors
// can share an ErrorCode but differ in BusinessCode (e.g. an empty post body
// and a like on a missing post are both VALIDATION_FAILED).
type BusinessCode string

const (
	BusinessCodeGeneral       BusinessCode = "GENERAL"
	BusinessCodeAuthRequired  BusinessCode = "AUTH_REQUIRED"
	BusinessCodePostNotFound  BusinessCode = "POST_NOT_FOUND"
	BusinessCodeEmptyPostBody BusinessCode = "EMPTY_POST_BODY"
	BusinessCodeNotPostOwner  BusinessCode = "NOT_POST_OWNER"
)
