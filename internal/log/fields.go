package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent        = "component"
	FieldSubComponent     = "subcomponent"
	FieldRequestID        = "request_id"
	FieldClientIP         = "client_ip"
	FieldMethod           = "method"
	FieldPath             = "path"
	FieldQuery            = "query"
	FieldStatusCode       = "status_code"
	FieldDuration         = "duration_ms"
	FieldUserAgent        = "user_agent"
	FieldSuccess          = "success"
	FieldError            = "error"
	FieldErrorType        = "error_type"
	FieldOperation        = "operation"
	FieldCustomerID       = "customer_id"
	FieldFromDate         = "from_date"
	FieldToDate           = "to_date"
	FieldTotalPoints      = "total_points"
	FieldMonths           = "months"
	FieldTransactionCount = "transaction_count"
	FieldBackend          = "backend"
	FieldCacheHit         = "cache_hit"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRewards   = "rewards"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpCalculate = "calculate"
	OpQuery     = "query"
	OpImport    = "import"
	OpMigrate   = "migrate"
	OpPublish   = "publish"
	OpValidate  = "validate"
	OpParse     = "parse"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; nil errors are ignored.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithCustomer(customerID string) LogFields {
	f[FieldCustomerID] = customerID
	return f
}

// WithRange records the requested bounds. Empty strings stand for absent bounds
// and are left out.
func (f LogFields) WithRange(from, to string) LogFields {
	if from != "" {
		f[FieldFromDate] = from
	}
	if to != "" {
		f[FieldToDate] = to
	}
	return f
}

func (f LogFields) WithRewards(totalPoints, months, transactions int) LogFields {
	f[FieldTotalPoints] = totalPoints
	f[FieldMonths] = months
	f[FieldTransactionCount] = transactions
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value pairs, sorted by key so
// log lines are stable.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
