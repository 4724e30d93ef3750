package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldLedger     = "ledger"
	FieldRecordID   = "record_id"
	FieldDate       = "date"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldStartDate  = "start_date"
	FieldEndDate    = "end_date"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentLedger  = "ledger"
	ComponentEvents  = "events"
	ComponentWorker  = "worker"
	ComponentCatalog = "catalog"
	ComponentMirror  = "mirror"
)

// Operations defines standard operation names
const (
	OpInsert    = "insert"
	OpList      = "list"
	OpDelete    = "delete"
	OpUpdate    = "update"
	OpSummarize = "summarize"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
