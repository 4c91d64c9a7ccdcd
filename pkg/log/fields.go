package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Codes
	FieldCode        = "code"
	FieldSlug        = "slug"
	FieldGroupKey    = "group_key"
	FieldPieceNumber = "piece_number"
	FieldPeriod      = "period"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
