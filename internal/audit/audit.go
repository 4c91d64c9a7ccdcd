package audit

import (
	"context"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
)

// Audit actions.
const (
	ActionGenerateCode = "code.generate"
	ActionDeleteCode   = "code.delete"
	ActionExportPeriod = "code.export"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, code, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldCode, code).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, code, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldCode, code).
		Str(FieldDetail, detail).
		Msg(msg)
}
