package spreadsheet

// AppErrorCode classifies failures of whole operations, as opposed to the
// per-cell codes a formula can produce. the numbering follows gRPC status
// codes so the server can map them onto HTTP statuses.
type AppErrorCode int

const (
	// InvalidArgument marks bad caller input such as a malformed cell id
	InvalidArgument AppErrorCode = 3

	// NotFound marks a stored sheet that does not exist
	NotFound AppErrorCode = 5

	// AlreadyExists marks a create that collides with a stored name
	AlreadyExists AppErrorCode = 6

	// Internal marks storage or encoding failures the caller can't fix
	Internal AppErrorCode = 13
)

// AppError carries an AppErrorCode with a message for the caller
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}
