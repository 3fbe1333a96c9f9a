package relay

// ErrorCode identifies a protocol-visible failure. Errors go to the
// originating connection only and never terminate the connection or session.
type ErrorCode string

const (
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	CodeReceiverExists  ErrorCode = "RECEIVER_EXISTS"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeChunkSaveError  ErrorCode = "CHUNK_SAVE_ERROR"
)

func errorTo(connID string, code ErrorCode, message string) []Outbound {
	return []Outbound{{
		To:      connID,
		Event:   EventError,
		Payload: ErrorPayload{Message: message, Code: code},
	}}
}
