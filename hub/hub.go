// Package hub mediates between the OSC transceiver, the avatar config
// loader and the connected web sessions. It is the single writer of the
// registry: every update from every producer funnels into one event loop,
// so no reader can ever observe a half-applied change.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"oscbridge/avatarconfig"
	"oscbridge/oscmanager"
	"oscbridge/param"
	"oscbridge/registry"
)

// Session is one connected client. Send must not block: implementations
// buffer and drop rather than stall the hub's event loop.
type Session interface {
	Send(msg any)
}

// Sender pushes accepted web-originated changes back to the application.
type Sender interface {
	Send(address string, v param.Value) error
	SendChatbox(text string, send, notify bool) error
}

type eventKind int

const (
	evRegister eventKind = iota
	evUnregister
	evSet
	evChatbox
)

type sessionEvent struct {
	kind    eventKind
	session Session

	// evSet
	address string
	raw     any

	// evChatbox
	text   string
	send   bool
	notify bool
}

// Hub owns the registry and the set of live sessions.
type Hub struct {
	registry *registry.Registry
	loader   *avatarconfig.Loader
	sender   Sender

	osc    <-chan oscmanager.Event
	reload <-chan string
	events chan sessionEvent

	sessions map[Session]struct{}
	log      *zap.Logger
}

// New wires the hub to its input streams. reload may be nil when no
// directory watcher is running.
func New(reg *registry.Registry, loader *avatarconfig.Loader, sender Sender,
	oscEvents <-chan oscmanager.Event, reload <-chan string, log *zap.Logger) *Hub {
	return &Hub{
		registry: reg,
		loader:   loader,
		sender:   sender,
		osc:      oscEvents,
		reload:   reload,
		events:   make(chan sessionEvent, 256),
		sessions: make(map[Session]struct{}),
		log:      log,
	}
}

// Register adds a session; it receives a full snapshot immediately.
func (h *Hub) Register(s Session) {
	h.events <- sessionEvent{kind: evRegister, session: s}
}

// Unregister removes a session from the broadcast set.
func (h *Hub) Unregister(s Session) {
	h.events <- sessionEvent{kind: evUnregister, session: s}
}

// SetParameter injects a client-originated update. raw is the JSON-decoded
// value; it is typed against the registry's declared type before applying.
func (h *Hub) SetParameter(origin Session, address string, raw any) {
	h.events <- sessionEvent{kind: evSet, session: origin, address: address, raw: raw}
}

// Chatbox forwards a chatbox message to the application. Chatbox text is
// not a parameter and never enters the registry.
func (h *Hub) Chatbox(text string, send, notify bool) {
	h.events <- sessionEvent{kind: evChatbox, text: text, send: send, notify: notify}
}

// Run processes events one at a time until the context is cancelled.
// Applying an update and broadcasting it completes before the next event
// is dequeued.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-h.osc:
			if !ok {
				h.osc = nil
				continue
			}
			h.handleOSC(ev)
		case path, ok := <-h.reload:
			if !ok {
				h.reload = nil
				continue
			}
			h.handleConfigChange(path)
		case ev := <-h.events:
			h.handleSession(ev)
		}
	}
}

func (h *Hub) handleOSC(ev oscmanager.Event) {
	switch ev.Kind {
	case oscmanager.EventAvatarChange:
		h.log.Info("avatar changed", zap.String("avatar", ev.AvatarID))
		h.switchAvatar(ev.AvatarID)
	case oscmanager.EventParameter:
		p, err := h.registry.Apply(ev.Address, ev.Value)
		if err != nil {
			h.log.Debug("rejected osc update", zap.String("address", ev.Address), zap.Error(err))
			return
		}
		// The protocol side has no session identity, so everyone gets it.
		h.broadcast(updateFor(p), nil)
	}
}

func (h *Hub) handleConfigChange(path string) {
	active := h.registry.AvatarID()
	if active == "" || path != h.loader.Path(active) {
		return
	}
	h.log.Info("avatar config rewritten, reloading", zap.String("path", path))
	h.switchAvatar(active)
}

// switchAvatar loads the avatar's custom set, merges it and resyncs every
// session with a full snapshot. Load failures degrade to an empty set.
func (h *Hub) switchAvatar(avatarID string) {
	var custom []param.Parameter
	source := ""

	set, err := h.loader.Load(avatarID)
	switch {
	case err == nil:
		custom = set.Parameters
		source = set.Source
	case errors.Is(err, avatarconfig.ErrNotFound):
		h.log.Info("no config for avatar", zap.String("avatar", avatarID))
	default:
		h.log.Warn("avatar config unusable", zap.String("avatar", avatarID), zap.Error(err))
	}

	accepted, dropped := h.registry.Merge(avatarID, source, custom)
	h.log.Info("merged custom parameters",
		zap.String("avatar", avatarID),
		zap.Int("accepted", len(accepted)),
		zap.Int("dropped", dropped))

	snap := h.snapshot()
	for s := range h.sessions {
		s.Send(snap)
	}
}

func (h *Hub) handleSession(ev sessionEvent) {
	switch ev.kind {
	case evRegister:
		h.sessions[ev.session] = struct{}{}
		ev.session.Send(h.snapshot())
		h.log.Info("session connected", zap.Int("sessions", len(h.sessions)))
	case evUnregister:
		if _, ok := h.sessions[ev.session]; !ok {
			return
		}
		delete(h.sessions, ev.session)
		h.log.Info("session disconnected", zap.Int("sessions", len(h.sessions)))
	case evSet:
		h.handleSet(ev.session, ev.address, ev.raw)
	case evChatbox:
		if err := h.sender.SendChatbox(ev.text, ev.send, ev.notify); err != nil {
			h.log.Warn("chatbox send failed", zap.Error(err))
		}
	}
}

func (h *Hub) handleSet(origin Session, address string, raw any) {
	decl, ok := h.registry.Lookup(address)
	if !ok {
		h.log.Debug("rejected web update", zap.String("address", address),
			zap.Error(registry.ErrUnknownAddress))
		return
	}
	v, err := param.FromJSON(decl.Type, raw)
	if err != nil {
		h.log.Debug("rejected web update", zap.String("address", address), zap.Error(err))
		return
	}
	p, err := h.registry.Apply(address, v)
	if err != nil {
		h.log.Debug("rejected web update", zap.String("address", address), zap.Error(err))
		return
	}

	if err := h.sender.Send(address, v); err != nil {
		// Non-fatal: our state stays authoritative, the next change
		// will attempt another send.
		h.log.Warn("osc send failed", zap.Error(err))
	}

	// The originating session already holds the value it sent.
	h.broadcast(updateFor(p), origin)
}

func (h *Hub) broadcast(msg any, except Session) {
	for s := range h.sessions {
		if s == except {
			continue
		}
		s.Send(msg)
	}
}

func (h *Hub) snapshot() Snapshot {
	params := h.registry.Snapshot()
	infos := make([]ParameterInfo, len(params))
	for i, p := range params {
		infos[i] = infoFor(p)
	}
	return Snapshot{
		Type:       "snapshot",
		Avatar:     h.registry.AvatarID(),
		Dropped:    h.registry.Dropped(),
		Parameters: infos,
	}
}
