package game

import (
	"context"
	"sync"

	"k8s.io/klog/v2"
)

// Session is the router's view of one live connection: a unicast send plus
// the (room, user) tag that joins set.
type Session interface {
	// Send queues one event for this session only.
	Send(env Envelope)
	// Tag associates the session with a room and user. A later join
	// overwrites the previous tag.
	Tag(roomID, userID string)
}

// Broadcaster fans one event out to every open session tagged with a room.
type Broadcaster interface {
	Broadcast(roomID string, env Envelope)
}

// RoomRecorder persists room identifiers. Durability is best-effort; the
// router logs failures and carries on.
type RoomRecorder interface {
	EnsureRoom(ctx context.Context, roomID string) error
}

// Router decodes inbound events, mutates the store, and produces outbound
// events. A single mutex covers each decode→mutate→broadcast step, so events
// are processed as one sequential stream regardless of how many reader
// goroutines feed it. That is what guarantees every session observes
// broadcasts in production order.
type Router struct {
	mu       sync.Mutex
	store    *Store
	cast     Broadcaster
	recorder RoomRecorder // may be nil
}

// NewRouter creates a Router over an injected store and fan-out. recorder may
// be nil when persistence is not configured.
func NewRouter(store *Store, cast Broadcaster, recorder RoomRecorder) *Router {
	return &Router{store: store, cast: cast, recorder: recorder}
}

// Route processes one inbound envelope from sess. Malformed payloads and
// unknown types yield a single unicast error to the sender with no state
// mutation and no broadcast; they never affect other sessions.
func (r *Router) Route(ctx context.Context, sess Session, env Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parsed, err := env.Parse()
	if err != nil {
		klog.V(1).Infof("Router: rejected message type=%q: %v", env.Type, err)
		if _, ok := err.(ErrUnknownType); ok {
			sess.Send(NewError("unknown type"))
		} else {
			sess.Send(NewError("invalid message"))
		}
		return
	}

	switch p := parsed.(type) {
	case *JoinRoomPayload:
		r.handleJoinRoom(ctx, sess, p)
	case *CreateCharacterPayload:
		r.handleCreateCharacter(sess, p)
	case *UpdateStatsPayload:
		r.handleUpdateStats(sess, p)
	case *StartBattlePayload:
		r.handleStartBattle(sess, p)
	}
}

func (r *Router) handleJoinRoom(ctx context.Context, sess Session, p *JoinRoomPayload) {
	if p.RoomID == "" || p.UserID == "" {
		sess.Send(NewError("invalid message"))
		return
	}
	r.store.AddPlayer(p.RoomID, p.UserID)
	// Tag before broadcasting so the joiner sees its own player_joined.
	sess.Tag(p.RoomID, p.UserID)
	if r.recorder != nil {
		if err := r.recorder.EnsureRoom(ctx, p.RoomID); err != nil {
			klog.Errorf("Router: persist room %q: %v", p.RoomID, err)
		}
	}
	r.broadcast(p.RoomID, MsgTypePlayerJoined, PlayerJoinedPayload{UserID: p.UserID})
}

func (r *Router) handleCreateCharacter(sess Session, p *CreateCharacterPayload) {
	if p.RoomID == "" || p.UserID == "" {
		sess.Send(NewError("invalid message"))
		return
	}
	r.store.SaveCharacter(p.RoomID, p.UserID, Character{
		Name:  p.Name,
		Class: p.Class,
		Stats: p.Stats,
	})
	r.broadcast(p.RoomID, MsgTypeCharacterCreated, CharacterCreatedPayload{
		UserID: p.UserID,
		Name:   p.Name,
		Class:  p.Class,
		Stats:  p.Stats,
	})
}

func (r *Router) handleUpdateStats(sess Session, p *UpdateStatsPayload) {
	if p.RoomID == "" || p.UserID == "" {
		sess.Send(NewError("invalid message"))
		return
	}
	r.store.UpdateStats(p.RoomID, p.UserID, p.Stats)
	// The patch is relayed as sent, whether or not the merge was a no-op.
	r.broadcast(p.RoomID, MsgTypeStatsUpdated, StatsUpdatedPayload{
		UserID: p.UserID,
		Stats:  p.Stats,
	})
}

func (r *Router) handleStartBattle(sess Session, p *StartBattlePayload) {
	if p.RoomID == "" {
		sess.Send(NewError("invalid message"))
		return
	}
	result := StartBattle(r.store.RoomState(p.RoomID))
	r.broadcast(p.RoomID, MsgTypeBattleStarted, result)
}

func (r *Router) broadcast(roomID string, msgType MessageType, payload any) {
	env, err := NewEnvelope(msgType, payload)
	if err != nil {
		klog.Errorf("Router: marshal %s broadcast: %v", msgType, err)
		return
	}
	r.cast.Broadcast(roomID, env)
}
