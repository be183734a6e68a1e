package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldURL         = "url"
	FieldStatus      = "status"
	FieldAttempt     = "attempt"
	FieldDelay       = "delay_ms"
	FieldCloseCode   = "close_code"
	FieldMessageType = "message_type"
	FieldTotal       = "total"
	FieldExchange    = "exchange"
	FieldRoutingKey  = "routing_key"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAPI       = "api"
	ComponentSession   = "session"
	ComponentNotify    = "notify"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentRelay     = "relay"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpLogin     = "login"
	OpLogout    = "logout"
	OpRestore   = "restore"
	OpRefresh   = "refresh"
	OpConnect   = "connect"
	OpReconnect = "reconnect"
	OpSend      = "send"
	OpDecode    = "decode"
	OpPublish   = "publish"
	OpRecord    = "record"
	OpExport    = "export"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
	OpCalculate = "calculate"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// WithReconnect adds the backoff fields logged when a retry is scheduled.
func (f LogFields) WithReconnect(attempt int, delayMs int64, closeCode int) LogFields {
	f[FieldAttempt] = attempt
	f[FieldDelay] = delayMs
	f[FieldCloseCode] = closeCode
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
