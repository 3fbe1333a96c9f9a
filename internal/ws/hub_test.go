package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jaywantadh/RelayByte/config"
	"github.com/jaywantadh/RelayByte/internal/activity"
	"github.com/jaywantadh/RelayByte/internal/relay"
	"github.com/jaywantadh/RelayByte/internal/session"
	"github.com/jaywantadh/RelayByte/internal/storage"
	"github.com/jaywantadh/RelayByte/pkg/logging"
)

func TestMain(m *testing.M) {
	logging.InitLogger(true)
	os.Exit(m.Run())
}

func newTestHub(t *testing.T) (*Hub, *relay.Engine) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create chunk store: %v", err)
	}
	act := activity.NewLogger(t.TempDir())
	t.Cleanup(func() { act.Close() })

	engine := relay.NewEngine(session.NewRegistry(), store, act, nil, time.Hour)
	hub := NewHub(engine, &config.AppConfig{
		CORSOrigin:    "*",
		MaxBufferSize: 1 << 20,
		PingInterval:  time.Second,
		PongTimeout:   5 * time.Second,
	})
	return hub, engine
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	if err := conn.WriteJSON(Envelope{Event: event, Data: data}); err != nil {
		t.Fatalf("failed to send %s: %v", event, err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("failed to read envelope: %v", err)
	}
	return env
}

func expect(t *testing.T, conn *websocket.Conn, event string) Envelope {
	t.Helper()
	env := recv(t, conn)
	if env.Event != event {
		t.Fatalf("expected event %q, got %q (%s)", event, env.Event, env.Data)
	}
	return env
}

func TestEndToEndRelayOverWebsocket(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	sender := dial(t, srv)
	receiver := dial(t, srv)

	send(t, sender, relay.EventCreateTransfer, relay.CreateTransferMessage{TransferID: "t1"})
	expect(t, sender, relay.EventTransferCreated)

	send(t, receiver, relay.EventJoinTransfer, relay.JoinTransferMessage{TransferID: "t1"})
	expect(t, receiver, relay.EventJoinedTransfer)
	expect(t, sender, relay.EventReceiverConnected)

	send(t, sender, relay.EventUploadChunk, relay.UploadChunkMessage{
		TransferID:  "t1",
		Chunk:       []byte("payload"),
		ChunkIndex:  0,
		TotalChunks: 1,
		FileName:    "a.txt",
		FileSize:    7,
		FileType:    "text/plain",
	})

	env := expect(t, receiver, relay.EventReceiveChunk)
	var rc relay.ReceiveChunkPayload
	if err := json.Unmarshal(env.Data, &rc); err != nil {
		t.Fatalf("invalid receive-chunk payload: %v", err)
	}
	if string(rc.Chunk) != "payload" || rc.FileName != "a.txt" {
		t.Errorf("relayed chunk does not match upload: %+v", rc)
	}
	expect(t, sender, relay.EventChunkUploaded)

	send(t, sender, relay.EventUploadComplete, relay.UploadCompleteMessage{TransferID: "t1"})
	env = expect(t, receiver, relay.EventTransferComplete)
	var tc relay.TransferCompletePayload
	if err := json.Unmarshal(env.Data, &tc); err != nil {
		t.Fatalf("invalid transfer-complete payload: %v", err)
	}
	if tc.FileInfo == nil || tc.FileInfo.TotalChunks != 1 {
		t.Errorf("unexpected fileInfo: %+v", tc.FileInfo)
	}
}

func TestDisconnectNotifiesPeerOverWebsocket(t *testing.T) {
	hub, engine := newTestHub(t)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	sender := dial(t, srv)
	receiver := dial(t, srv)

	send(t, sender, relay.EventCreateTransfer, relay.CreateTransferMessage{TransferID: "t1"})
	expect(t, sender, relay.EventTransferCreated)
	send(t, receiver, relay.EventJoinTransfer, relay.JoinTransferMessage{TransferID: "t1"})
	expect(t, receiver, relay.EventJoinedTransfer)

	sender.Close()

	env := expect(t, receiver, relay.EventPeerDisconnected)
	var pd relay.PeerDisconnectedPayload
	if err := json.Unmarshal(env.Data, &pd); err != nil {
		t.Fatalf("invalid peer-disconnected payload: %v", err)
	}
	if pd.Role != session.RoleSender || pd.TransferID != "t1" {
		t.Errorf("unexpected disconnect payload: %+v", pd)
	}

	// The session itself survives until cleanup fires.
	if _, ok := engine.Registry().Session("t1"); !ok {
		t.Errorf("session should remain registered after a peer disconnect")
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	send(t, conn, "no-such-event", map[string]string{"x": "y"})

	// The connection stays usable afterwards.
	send(t, conn, relay.EventGetStatus, relay.GetStatusMessage{TransferID: "ghost"})
	env := expect(t, conn, relay.EventStatusResponse)
	var sr relay.StatusResponsePayload
	if err := json.Unmarshal(env.Data, &sr); err != nil {
		t.Fatalf("invalid status payload: %v", err)
	}
	if sr.Found {
		t.Errorf("unknown transfer reported found=true")
	}
}
