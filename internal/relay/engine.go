package relay

import (
	"fmt"
	"time"

	"github.com/jaywantadh/RelayByte/internal/activity"
	"github.com/jaywantadh/RelayByte/internal/cleanup"
	"github.com/jaywantadh/RelayByte/internal/history"
	"github.com/jaywantadh/RelayByte/internal/session"
	"github.com/jaywantadh/RelayByte/internal/storage"
	"github.com/jaywantadh/RelayByte/pkg/logging"
)

// Engine is the transfer session protocol state machine. It exclusively owns
// the registry; the transport layer only calls these operations and delivers
// the returned events.
type Engine struct {
	reg          *session.Registry
	store        storage.Store
	activity     *activity.Logger
	history      *history.Store // nil disables transfer history
	cleaner      *cleanup.Scheduler
	cleanupDelay time.Duration
}

// NewEngine wires the protocol engine. history may be nil.
func NewEngine(reg *session.Registry, store storage.Store, act *activity.Logger, hist *history.Store, cleanupDelay time.Duration) *Engine {
	e := &Engine{
		reg:          reg,
		store:        store,
		activity:     act,
		history:      hist,
		cleanupDelay: cleanupDelay,
	}
	e.cleaner = cleanup.NewScheduler(e.Cleanup)
	return e
}

// Registry exposes the registry for read-only consumers (health, snapshots).
func (e *Engine) Registry() *session.Registry {
	return e.reg
}

// Connect registers a freshly opened, unbound connection.
func (e *Engine) Connect(connID string) {
	e.reg.AddConnection(connID)
	logging.Log.WithField("socket", connID).Debug("connection opened")
}

// Create starts a new session with the caller bound as sender. A create for
// a transfer id that is still live tears the old session down first so its
// stored chunks cannot leak.
func (e *Engine) Create(connID string, msg CreateTransferMessage) []Outbound {
	if _, exists := e.reg.Session(msg.TransferID); exists {
		logging.Log.WithField("transfer", msg.TransferID).Warn("duplicate create, recycling previous session")
		e.Cleanup(msg.TransferID)
	}

	s := session.NewSession(msg.TransferID, connID)
	e.reg.PutSession(s)
	e.reg.BindConnection(connID, session.RoleSender, msg.TransferID)

	e.activity.Record(activity.ActionCreate, msg.TransferID, connID)
	logging.Log.WithFields(map[string]any{
		"transfer": msg.TransferID,
		"socket":   connID,
	}).Info("transfer created")

	return []Outbound{{
		To:      connID,
		Event:   EventTransferCreated,
		Payload: TransferCreatedPayload{TransferID: msg.TransferID},
	}}
}

// Join binds the caller as receiver. At most one receiver ever binds.
func (e *Engine) Join(connID string, msg JoinTransferMessage) []Outbound {
	s, ok := e.reg.Session(msg.TransferID)
	if !ok {
		return errorTo(connID, CodeSessionNotFound, "transfer session not found")
	}
	if !s.BindReceiver(connID) {
		return errorTo(connID, CodeReceiverExists, "transfer already has a receiver")
	}
	e.reg.BindConnection(connID, session.RoleReceiver, msg.TransferID)

	e.activity.Record(activity.ActionJoin, msg.TransferID, connID)
	logging.Log.WithFields(map[string]any{
		"transfer": msg.TransferID,
		"socket":   connID,
	}).Info("receiver joined")

	snap := s.Snapshot()
	return []Outbound{
		{
			To:      s.Sender,
			Event:   EventReceiverConnected,
			Payload: ReceiverConnectedPayload{TransferID: msg.TransferID},
		},
		{
			To:      connID,
			Event:   EventJoinedTransfer,
			Payload: JoinedTransferPayload{TransferID: msg.TransferID, Status: snap.Status},
		},
	}
}

// UploadChunk persists one chunk and relays it to the receiver when bound.
// The receiver's receive-chunk precedes the sender's ack in the returned
// slice; a chunk arriving before any receiver is stored but never relayed.
func (e *Engine) UploadChunk(connID string, msg UploadChunkMessage) []Outbound {
	s, ok := e.reg.Session(msg.TransferID)
	if !ok {
		return errorTo(connID, CodeSessionNotFound, "transfer session not found")
	}
	if s.Sender != connID {
		return errorTo(connID, CodeUnauthorized, "only the transfer sender may upload chunks")
	}

	if msg.ChunkIndex == 0 {
		s.BeginUpload(session.FileInfo{
			Name:        msg.FileName,
			Size:        msg.FileSize,
			Type:        msg.FileType,
			TotalChunks: msg.TotalChunks,
		})
	}

	// Store write runs outside the session lock; only the metadata append
	// below re-acquires it.
	ref, err := e.store.Put(msg.TransferID, msg.ChunkIndex, msg.Chunk)
	if err != nil {
		logging.Log.WithError(err).WithFields(map[string]any{
			"transfer": msg.TransferID,
			"chunk":    msg.ChunkIndex,
		}).Error("chunk store write failed")
		return errorTo(connID, CodeChunkSaveError,
			fmt.Sprintf("failed to save chunk %d, please resend", msg.ChunkIndex))
	}

	s.AppendChunk(session.ChunkRecord{
		Index:      msg.ChunkIndex,
		StorageRef: ref,
		Size:       len(msg.Chunk),
		Timestamp:  time.Now(),
	})

	var out []Outbound
	if receiver := s.Receiver(); receiver != "" {
		out = append(out, Outbound{
			To:    receiver,
			Event: EventReceiveChunk,
			Payload: ReceiveChunkPayload{
				Chunk:       msg.Chunk,
				ChunkIndex:  msg.ChunkIndex,
				TotalChunks: msg.TotalChunks,
				FileName:    msg.FileName,
				FileSize:    msg.FileSize,
				FileType:    msg.FileType,
			},
		})
	}
	out = append(out, Outbound{
		To:    connID,
		Event: EventChunkUploaded,
		Payload: ChunkUploadedPayload{
			ChunkIndex: msg.ChunkIndex,
			Message:    fmt.Sprintf("chunk %d received", msg.ChunkIndex),
		},
	})
	return out
}

// Complete marks the session finished, notifies a bound receiver, records
// history, and arms the deferred cleanup.
func (e *Engine) Complete(connID string, msg UploadCompleteMessage) []Outbound {
	s, ok := e.reg.Session(msg.TransferID)
	if !ok {
		return errorTo(connID, CodeSessionNotFound, "transfer session not found")
	}

	s.Complete()
	snap := s.Snapshot()

	e.activity.Record(activity.ActionComplete, msg.TransferID, connID)
	e.recordHistory(snap)

	// Cleanup fires after the delay whether or not a receiver ever joined.
	e.cleaner.Schedule(msg.TransferID, e.cleanupDelay)
	logging.Log.WithFields(map[string]any{
		"transfer": msg.TransferID,
		"chunks":   snap.ChunksReceived,
	}).Info("transfer completed")

	if snap.Receiver == "" {
		return nil
	}
	return []Outbound{{
		To:    snap.Receiver,
		Event: EventTransferComplete,
		Payload: TransferCompletePayload{
			TransferID: msg.TransferID,
			FileInfo:   snap.FileInfo,
		},
	}}
}

// Status reports the session state to the caller. Read-only.
func (e *Engine) Status(connID string, msg GetStatusMessage) []Outbound {
	s, ok := e.reg.Session(msg.TransferID)
	if !ok {
		return []Outbound{{
			To:      connID,
			Event:   EventStatusResponse,
			Payload: StatusResponsePayload{Found: false},
		}}
	}

	snap := s.Snapshot()
	return []Outbound{{
		To:    connID,
		Event: EventStatusResponse,
		Payload: StatusResponsePayload{
			Found:          true,
			Status:         snap.Status,
			FileInfo:       snap.FileInfo,
			ChunksReceived: snap.ChunksReceived,
			TotalChunks:    snap.TotalChunks,
		},
	}}
}

// Disconnect removes the connection record and, when the connection was
// bound, notifies the surviving peer. The session itself stays in the
// registry untouched until cleanup fires.
func (e *Engine) Disconnect(connID string) []Outbound {
	rec, ok := e.reg.RemoveConnection(connID)
	if !ok || rec.TransferID == "" {
		return nil
	}

	e.activity.Record(activity.ActionDisconnect, rec.TransferID, connID)
	logging.Log.WithFields(map[string]any{
		"transfer": rec.TransferID,
		"socket":   connID,
		"role":     rec.Role,
	}).Info("peer disconnected")

	s, ok := e.reg.Session(rec.TransferID)
	if !ok {
		return nil
	}

	var other string
	if rec.Role == session.RoleSender {
		other = s.Receiver()
	} else {
		other = s.Sender
	}
	if other == "" {
		return nil
	}
	return []Outbound{{
		To:    other,
		Event: EventPeerDisconnected,
		Payload: PeerDisconnectedPayload{
			TransferID: rec.TransferID,
			Role:       rec.Role,
		},
	}}
}

// Cleanup deletes every chunk blob the session references and drops the
// session from the registry. Idempotent; callable in any status.
func (e *Engine) Cleanup(transferID string) {
	e.cleaner.Cancel(transferID)

	s, ok := e.reg.RemoveSession(transferID)
	if !ok {
		return
	}

	snap := s.Snapshot()
	for _, c := range snap.Chunks {
		if err := e.store.Delete(c.StorageRef); err != nil {
			logging.Log.WithError(err).WithFields(map[string]any{
				"transfer": transferID,
				"chunk":    c.Index,
			}).Warn("could not delete chunk blob")
		}
	}
	logging.Log.WithFields(map[string]any{
		"transfer": transferID,
		"chunks":   len(snap.Chunks),
	}).Info("session cleaned up")
}

// Sweep runs cleanup over every active session. Used on graceful shutdown.
func (e *Engine) Sweep() {
	ids := e.reg.SessionIDs()
	for _, id := range ids {
		e.Cleanup(id)
	}
	e.cleaner.Stop()
	if len(ids) > 0 {
		logging.Log.Infof("swept %d active sessions", len(ids))
	}
}

func (e *Engine) recordHistory(snap session.Snapshot) {
	if e.history == nil {
		return
	}
	rec := history.Record{
		TransferID:   snap.TransferID,
		TotalChunks:  snap.TotalChunks,
		BytesRelayed: snap.BytesStored,
		CompletedAt:  snap.CompletedAt,
	}
	if snap.FileInfo != nil {
		rec.FileName = snap.FileInfo.Name
		rec.FileSize = snap.FileInfo.Size
		rec.FileType = snap.FileInfo.Type
	}
	if err := e.history.Put(rec); err != nil {
		logging.Log.WithError(err).Warn("could not record transfer history")
	}
}
