// Package oscmanager is the only component that touches the OSC wire. It
// decodes inbound UDP packets from VRChat into typed events and encodes
// accepted web-originated updates back out.
package oscmanager

import (
	"fmt"
	"net"
	"strings"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"
	"go.uber.org/zap"

	"oscbridge/param"
)

const (
	// AvatarChangeAddress carries the new avatar id as a string argument
	// whenever the user switches avatars. It is not a parameter.
	AvatarChangeAddress = "/avatar/change"

	// chatboxInputAddress takes (text string, send bool, notify bool).
	chatboxInputAddress = "/chatbox/input"
)

// ignorePrefixes are address families VRChat emits at high rate with
// multi-value payloads that the parameter model does not cover.
var ignorePrefixes = []string{"/tracking/"}

// EventKind tags a decoded inbound message.
type EventKind int

const (
	EventParameter EventKind = iota
	EventAvatarChange
)

// Event is one recognized inbound OSC message.
type Event struct {
	Kind     EventKind
	Address  string
	Value    param.Value // parameter events
	AvatarID string      // avatar-change events
}

// OSCManager holds the OSC server and client plus the event channel the
// hub consumes.
type OSCManager struct {
	ListenAddr string

	client *osc.Client
	server *osc.Server
	conn   net.PacketConn
	events chan Event
	log    *zap.Logger

	dropped atomic.Uint64
}

// New creates an OSCManager that listens on listenAddr and sends to
// sendHost:sendPort.
func New(listenAddr, sendHost string, sendPort int, log *zap.Logger) *OSCManager {
	o := &OSCManager{
		ListenAddr: listenAddr,
		client:     osc.NewClient(sendHost, sendPort),
		events:     make(chan Event, 64),
		log:        log,
	}

	dispatcher := osc.NewStandardDispatcher()
	dispatcher.AddMsgHandler("*", o.handle)
	o.server = &osc.Server{
		Addr:       listenAddr,
		Dispatcher: dispatcher,
	}
	return o
}

// Events is the stream of decoded inbound messages.
func (o *OSCManager) Events() <-chan Event { return o.events }

// Listen binds the UDP socket. A bind failure is a startup error and must
// abort the process; once bound, per-packet errors never escalate.
func (o *OSCManager) Listen() error {
	conn, err := net.ListenPacket("udp", o.ListenAddr)
	if err != nil {
		return fmt.Errorf("bind osc socket %s: %w", o.ListenAddr, err)
	}
	o.conn = conn
	return nil
}

// Run serves inbound packets until the socket is closed. Call Listen first.
func (o *OSCManager) Run() {
	o.log.Info("listening for OSC", zap.String("addr", o.ListenAddr))
	if err := o.server.Serve(o.conn); err != nil {
		o.log.Info("osc server stopped", zap.Error(err))
	}
}

// Close shuts the listening socket down, unblocking Run.
func (o *OSCManager) Close() error {
	if o.conn == nil {
		return nil
	}
	return o.conn.Close()
}

// Dropped counts inbound messages discarded for bad shape: missing
// arguments, unsupported argument types, or extra arguments.
func (o *OSCManager) Dropped() uint64 { return o.dropped.Load() }

func (o *OSCManager) handle(msg *osc.Message) {
	if msg.Address == AvatarChangeAddress {
		if len(msg.Arguments) < 1 {
			o.drop(msg)
			return
		}
		id, ok := msg.Arguments[0].(string)
		if !ok {
			o.drop(msg)
			return
		}
		o.emit(Event{Kind: EventAvatarChange, Address: msg.Address, AvatarID: id})
		return
	}

	for _, prefix := range ignorePrefixes {
		if strings.HasPrefix(msg.Address, prefix) {
			return
		}
	}

	if len(msg.Arguments) != 1 {
		o.drop(msg)
		return
	}
	v, ok := param.FromOSC(msg.Arguments[0])
	if !ok {
		o.drop(msg)
		return
	}
	o.emit(Event{Kind: EventParameter, Address: msg.Address, Value: v})
}

func (o *OSCManager) emit(ev Event) {
	select {
	case o.events <- ev:
		// sent successfully
	default:
		// channel full: remove old value then insert new one
		<-o.events
		o.events <- ev
	}
}

func (o *OSCManager) drop(msg *osc.Message) {
	o.dropped.Add(1)
	o.log.Debug("dropped malformed osc message",
		zap.String("address", msg.Address),
		zap.Int("args", len(msg.Arguments)))
}

// Send encodes one typed parameter update and transmits it to VRChat.
// A send failure leaves in-memory state as the source of truth; there is
// no retry, the next change will attempt again.
func (o *OSCManager) Send(address string, v param.Value) error {
	msg := osc.NewMessage(address)
	msg.Append(v.Interface())
	if err := o.client.Send(msg); err != nil {
		return fmt.Errorf("send osc %s: %w", address, err)
	}
	return nil
}

// SendChatbox pushes text into the VRChat chatbox. send skips the keyboard
// popup, notify plays the notification sound for other players.
func (o *OSCManager) SendChatbox(text string, send, notify bool) error {
	msg := osc.NewMessage(chatboxInputAddress)
	msg.Append(text)
	msg.Append(send)
	msg.Append(notify)
	if err := o.client.Send(msg); err != nil {
		return fmt.Errorf("send chatbox: %w", err)
	}
	return nil
}
