package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/couchbrawl/couchbrawl/internal/game"
)

// Outbound events queue here before the writer goroutine picks them up. A
// session that falls this far behind starts dropping events.
const sendBufferSize = 64

// Session is one live WebSocket connection, optionally tagged with the room
// and user it joined. Untagged sessions receive no broadcasts.
type Session struct {
	ID   string
	conn *websocket.Conn
	send chan game.Envelope

	mu     sync.Mutex
	roomID string
	userID string
	tagged bool
}

// Tag implements game.Session. Later joins overwrite the previous tag.
func (s *Session) Tag(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.userID = userID
	s.tagged = true
}

// Room returns the session's tag, if a join has set one.
func (s *Session) Room() (roomID, userID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.userID, s.tagged
}

// Send implements game.Session. It queues the event for the writer goroutine
// and drops it (with a log line) if the session's buffer is full, so one slow
// client never stalls routing for the rest of the room.
func (s *Session) Send(env game.Envelope) {
	select {
	case s.send <- env:
	default:
		klog.Errorf("Session %s: send buffer full, dropping %s event", s.ID, env.Type)
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.send:
			if err := wsjson.Write(ctx, s.conn, env); err != nil {
				klog.V(1).Infof("Session %s: write failed: %v", s.ID, err)
				return
			}
		}
	}
}

// ServerState holds the session registry and the shared room store.
type ServerState struct {
	// Address the server is listening on, filled in by Run.
	Address string

	// Store is the injected room store shared by all sessions.
	Store *game.Store

	router *game.Router

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewServerState creates the registry, store, and router. recorder may be nil
// when persistence is not configured.
func NewServerState(recorder game.RoomRecorder) *ServerState {
	s := &ServerState{
		Store:    game.NewStore(),
		sessions: make(map[string]*Session),
	}
	s.router = game.NewRouter(s.Store, s, recorder)
	return s
}

// Broadcast implements game.Broadcaster: the event goes to every open session
// tagged with roomID. Sessions tagged with other rooms, and untagged
// sessions, receive nothing.
func (s *ServerState) Broadcast(roomID string, env game.Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if tagged, _, ok := sess.Room(); ok && tagged == roomID {
			sess.Send(env)
		}
	}
}

// SessionCount reports the number of open sessions.
func (s *ServerState) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *ServerState) addSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *ServerState) removeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID)
}

// HandleWS upgrades the connection and runs the session until it closes.
// Player entries created by the session stay in the store after disconnect;
// only the registry entry is removed.
func (s *ServerState) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		klog.Errorf("HandleWS: accept failed: %v", err)
		return
	}

	sess := &Session{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan game.Envelope, sendBufferSize),
	}
	s.addSession(sess)
	klog.V(1).Infof("Session %s: connected", sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go sess.writeLoop(ctx)

	s.readLoop(ctx, sess)

	s.removeSession(sess)
	conn.Close(websocket.StatusNormalClosure, "")
	klog.V(1).Infof("Session %s: disconnected", sess.ID)
}

// readLoop routes inbound frames until the connection drops. A frame that is
// not a well-formed envelope earns the sender a unicast error and nothing
// else; decode failures never reach the store.
func (s *ServerState) readLoop(ctx context.Context, sess *Session) {
	for {
		_, data, err := sess.conn.Read(ctx)
		if err != nil {
			klog.V(1).Infof("Session %s: read ended: %v", sess.ID, err)
			return
		}

		var env game.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			klog.V(1).Infof("Session %s: invalid message: %v", sess.ID, err)
			sess.Send(game.NewError("invalid message"))
			continue
		}
		s.router.Route(ctx, sess, env)
	}
}
