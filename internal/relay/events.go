package relay

import "github.com/jaywantadh/RelayByte/internal/session"

// Inbound event names.
const (
	EventCreateTransfer = "create-transfer"
	EventJoinTransfer   = "join-transfer"
	EventUploadChunk    = "upload-chunk"
	EventUploadComplete = "upload-complete"
	EventGetStatus      = "get-status"
)

// Outbound event names.
const (
	EventTransferCreated   = "transfer-created"
	EventError             = "error"
	EventReceiverConnected = "receiver-connected"
	EventJoinedTransfer    = "joined-transfer"
	EventReceiveChunk      = "receive-chunk"
	EventChunkUploaded     = "chunk-uploaded"
	EventTransferComplete  = "transfer-complete"
	EventStatusResponse    = "status-response"
	EventPeerDisconnected  = "peer-disconnected"
)

// Outbound is one event addressed to one connection. Engine operations
// return these instead of writing to the transport, so the state machine
// is testable without a socket. Slice order is delivery order.
type Outbound struct {
	To      string
	Event   string
	Payload any
}

// Inbound message payloads.

type CreateTransferMessage struct {
	TransferID string `json:"transferId"`
}

type JoinTransferMessage struct {
	TransferID string `json:"transferId"`
}

type UploadChunkMessage struct {
	TransferID  string `json:"transferId"`
	Chunk       []byte `json:"chunk"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	FileType    string `json:"fileType"`
}

type UploadCompleteMessage struct {
	TransferID string `json:"transferId"`
}

type GetStatusMessage struct {
	TransferID string `json:"transferId"`
}

// Outbound event payloads.

type TransferCreatedPayload struct {
	TransferID string `json:"transferId"`
}

type ErrorPayload struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

type ReceiverConnectedPayload struct {
	TransferID string `json:"transferId"`
}

type JoinedTransferPayload struct {
	TransferID string         `json:"transferId"`
	Status     session.Status `json:"status"`
}

type ReceiveChunkPayload struct {
	Chunk       []byte `json:"chunk"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	FileType    string `json:"fileType"`
}

type ChunkUploadedPayload struct {
	ChunkIndex int    `json:"chunkIndex"`
	Message    string `json:"message"`
}

type TransferCompletePayload struct {
	TransferID string            `json:"transferId"`
	FileInfo   *session.FileInfo `json:"fileInfo"`
}

type StatusResponsePayload struct {
	Found          bool              `json:"found"`
	Status         session.Status    `json:"status,omitempty"`
	FileInfo       *session.FileInfo `json:"fileInfo,omitempty"`
	ChunksReceived int               `json:"chunksReceived"`
	TotalChunks    int               `json:"totalChunks"`
}

type PeerDisconnectedPayload struct {
	TransferID string       `json:"transferId"`
	Role       session.Role `json:"role"`
}
