package session

import (
	"sync"
	"time"
)

// Status represents the lifecycle stage of a transfer session. Transitions
// are monotonic: waiting -> connected -> uploading -> completed.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusConnected Status = "connected"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
)

var statusRank = map[Status]int{
	StatusWaiting:   0,
	StatusConnected: 1,
	StatusUploading: 2,
	StatusCompleted: 3,
}

// Role identifies which side of a transfer a connection plays.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// FileInfo describes the file being relayed. Set once, on the first chunk.
type FileInfo struct {
	Name            string    `json:"fileName"`
	Size            int64     `json:"fileSize"`
	Type            string    `json:"fileType"`
	TotalChunks     int       `json:"totalChunks"`
	UploadStartTime time.Time `json:"uploadStartTime"`
}

// ChunkRecord is the session-side back-reference to one stored chunk blob.
type ChunkRecord struct {
	Index      int       `json:"index"`
	StorageRef string    `json:"storageRef"`
	Size       int       `json:"size"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session pairs a sender and (optionally) a receiver for one transfer.
// All mutation goes through methods; each session carries its own lock so
// concurrent handlers for the same transfer serialize.
type Session struct {
	mu sync.Mutex

	TransferID  string
	Sender      string
	receiver    string
	status      Status
	fileInfo    *FileInfo
	chunks      []ChunkRecord
	StartTime   time.Time
	completedAt time.Time
}

// NewSession creates a waiting session bound to the given sender connection.
func NewSession(transferID, senderConn string) *Session {
	return &Session{
		TransferID: transferID,
		Sender:     senderConn,
		status:     StatusWaiting,
		StartTime:  time.Now(),
	}
}

// BindReceiver binds connID as the receiver exactly once. Returns false if a
// receiver is already bound. Advances waiting -> connected; a session already
// uploading keeps its status.
func (s *Session) BindReceiver(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receiver != "" {
		return false
	}
	s.receiver = connID
	s.advanceLocked(StatusConnected)
	return true
}

// Receiver returns the bound receiver connection id, or "" if none yet.
func (s *Session) Receiver() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiver
}

// BeginUpload records the file metadata carried by chunk index 0 and moves
// the session to uploading. FileInfo is immutable once set.
func (s *Session) BeginUpload(info FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fileInfo == nil {
		info.UploadStartTime = time.Now()
		s.fileInfo = &info
	}
	s.advanceLocked(StatusUploading)
}

// AppendChunk records one stored chunk. Append-only, arrival order.
func (s *Session) AppendChunk(rec ChunkRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, rec)
}

// Complete marks the transfer finished and stamps completedAt once.
func (s *Session) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completedAt.IsZero() {
		s.completedAt = time.Now()
	}
	s.advanceLocked(StatusCompleted)
}

func (s *Session) advanceLocked(next Status) {
	if statusRank[next] > statusRank[s.status] {
		s.status = next
	}
}

// Snapshot is a consistent read-only view of a session.
type Snapshot struct {
	TransferID     string
	Sender         string
	Receiver       string
	Status         Status
	FileInfo       *FileInfo
	Chunks         []ChunkRecord
	ChunksReceived int
	TotalChunks    int
	BytesStored    int64
	StartTime      time.Time
	CompletedAt    time.Time
}

// Snapshot copies the session state under the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TransferID:     s.TransferID,
		Sender:         s.Sender,
		Receiver:       s.receiver,
		Status:         s.status,
		ChunksReceived: len(s.chunks),
		StartTime:      s.StartTime,
		CompletedAt:    s.completedAt,
	}
	if s.fileInfo != nil {
		info := *s.fileInfo
		snap.FileInfo = &info
		snap.TotalChunks = info.TotalChunks
	}
	snap.Chunks = make([]ChunkRecord, len(s.chunks))
	copy(snap.Chunks, s.chunks)
	for _, c := range s.chunks {
		snap.BytesStored += int64(c.Size)
	}
	return snap
}
