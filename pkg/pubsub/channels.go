package pubsub

import "strings"

// Channels for gemstone code lifecycle events.
const (
	ChannelCodeGenerated = "gemcode:code:generated"
	ChannelCodeVerified  = "gemcode:code:verified"
	ChannelCodeDeleted   = "gemcode:code:deleted"
	ChannelExportDone    = "gemcode:export:completed"
)

// Event types.
const (
	EventCodeGenerated   = "code.generated"
	EventCodeVerified    = "code.verified"
	EventCodeDeleted     = "code.deleted"
	EventExportCompleted = "export.completed"
)

// Channels lists every channel the service publishes to.
func Channels() []string {
	return []string{ChannelCodeGenerated, ChannelCodeVerified, ChannelCodeDeleted, ChannelExportDone}
}

// ChannelToTopic maps a colon separated channel to a Kafka topic name.
//
//	"gemcode:code:generated" → "gemcode-code-generated"
func ChannelToTopic(channel string) string {
	return strings.ReplaceAll(channel, ":", "-")
}

// CodeGeneratedPayload is published after a code is persisted.
type CodeGeneratedPayload struct {
	Code          string   `json:"code"`
	Slug          string   `json:"slug"`
	GemstoneNames []string `json:"gemstone_names"`
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	PieceNumber   int      `json:"piece_number"`
}

// CodeVerifiedPayload carries the outcome of a verification.
type CodeVerifiedPayload struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
}

// CodeDeletedPayload is published after a soft delete.
type CodeDeletedPayload struct {
	Code string `json:"code"`
}

// ExportCompletedPayload is published after a period export is written.
type ExportCompletedPayload struct {
	Key   string `json:"key"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Rows  int    `json:"rows"`
}
