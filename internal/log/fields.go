package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldAgentID    = "agent_id"
	FieldRole       = "role"
	FieldSessionID  = "session_id"
	FieldInvoiceID  = "invoice_id"
	FieldInvoiceNo  = "invoice_number"
	FieldTotal      = "total"
	FieldScreen     = "screen"
	FieldBackend    = "backend"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentInvoice   = "invoice"
	ComponentAuth      = "auth"
	ComponentSession   = "session"
	ComponentDashboard = "dashboard"
	ComponentStorage   = "storage"
	ComponentCache     = "cache"
	ComponentWebsocket = "websocket"
)

// Operations
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpNavigate = "navigate"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields is a small builder for structured log attributes
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithAgent adds the acting agent and role
func (f Fields) WithAgent(agentID, role string) Fields {
	f[FieldAgentID] = agentID
	f[FieldRole] = role
	return f
}

// WithInvoice adds invoice identifiers and the grand total
func (f Fields) WithInvoice(id, number, total string) Fields {
	f[FieldInvoiceID] = id
	f[FieldInvoiceNo] = number
	f[FieldTotal] = total
	return f
}

// ToSlice converts Fields to alternating key/value args for slog
func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
