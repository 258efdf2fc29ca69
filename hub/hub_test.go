package hub

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"oscbridge/avatarconfig"
	"oscbridge/oscmanager"
	"oscbridge/param"
	"oscbridge/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSession struct {
	mu   sync.Mutex
	msgs []any
}

func (s *fakeSession) Send(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *fakeSession) messages() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.msgs...)
}

func (s *fakeSession) updates() []Update {
	var out []Update
	for _, m := range s.messages() {
		if u, ok := m.(Update); ok {
			out = append(out, u)
		}
	}
	return out
}

func (s *fakeSession) snapshots() []Snapshot {
	var out []Snapshot
	for _, m := range s.messages() {
		if sn, ok := m.(Snapshot); ok {
			out = append(out, sn)
		}
	}
	return out
}

type sentOSC struct {
	address string
	value   param.Value
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentOSC
	chat []string
}

func (f *fakeSender) Send(address string, v param.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentOSC{address, v})
	return nil
}

func (f *fakeSender) SendChatbox(text string, send, notify bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chat = append(f.chat, text)
	return nil
}

func (f *fakeSender) sentOSC() []sentOSC {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentOSC(nil), f.sent...)
}

func (f *fakeSender) chatTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chat...)
}

type fixture struct {
	hub    *Hub
	sender *fakeSender
	osc    chan oscmanager.Event
	reload chan string
	dir    string
}

func startHub(t *testing.T) *fixture {
	t.Helper()

	reg, err := registry.New(param.Builtins())
	require.NoError(t, err)

	dir := t.TempDir()
	fx := &fixture{
		sender: &fakeSender{},
		osc:    make(chan oscmanager.Event, 16),
		reload: make(chan string, 4),
		dir:    dir,
	}
	loader := avatarconfig.NewLoader(avatarconfig.DirResolver(dir))
	fx.hub = New(reg, loader, fx.sender, fx.osc, fx.reload, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fx.hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return fx
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRegisterSendsSnapshot(t *testing.T) {
	fx := startHub(t)

	// Prime some state before the second session connects. The first
	// session only observes that the update has been fully processed.
	probe := &fakeSession{}
	fx.hub.Register(probe)
	waitFor(t, func() bool { return len(probe.snapshots()) == 1 }, "probe registration")
	fx.osc <- oscmanager.Event{Kind: oscmanager.EventParameter, Address: "/usercamera/Zoom", Value: param.Float(45)}
	waitFor(t, func() bool { return len(probe.updates()) == 1 }, "priming update")

	s := &fakeSession{}
	fx.hub.Register(s)

	waitFor(t, func() bool { return len(s.snapshots()) == 1 }, "initial snapshot")
	snap := s.snapshots()[0]
	require.Equal(t, "snapshot", snap.Type)
	require.Equal(t, len(param.Builtins()), len(snap.Parameters))

	var zoom *ParameterInfo
	for i := range snap.Parameters {
		if snap.Parameters[i].Address == "/usercamera/Zoom" {
			zoom = &snap.Parameters[i]
		}
	}
	require.NotNil(t, zoom)
	require.Equal(t, float32(45), zoom.Value, "late session sees prior updates")
}

func TestOSCUpdateBroadcastsToAll(t *testing.T) {
	fx := startHub(t)
	s1, s2 := &fakeSession{}, &fakeSession{}
	fx.hub.Register(s1)
	fx.hub.Register(s2)
	waitFor(t, func() bool { return len(s2.snapshots()) == 1 }, "registration")

	fx.osc <- oscmanager.Event{Kind: oscmanager.EventParameter, Address: "/usercamera/Mode", Value: param.Int(3)}

	for _, s := range []*fakeSession{s1, s2} {
		waitFor(t, func() bool { return len(s.updates()) == 1 }, "osc update broadcast")
		u := s.updates()[0]
		require.Equal(t, "/usercamera/Mode", u.Address)
		require.Equal(t, int32(3), u.Value)
	}
	require.Empty(t, fx.sender.sentOSC(), "protocol-sourced updates are not echoed back out")
}

func TestWebSetPushesAndBroadcastsToOthers(t *testing.T) {
	fx := startHub(t)
	origin, other := &fakeSession{}, &fakeSession{}
	fx.hub.Register(origin)
	fx.hub.Register(other)
	waitFor(t, func() bool { return len(other.snapshots()) == 1 }, "registration")

	fx.hub.SetParameter(origin, "/input/Jump", true)

	waitFor(t, func() bool { return len(fx.sender.sentOSC()) == 1 }, "osc send")
	sent := fx.sender.sentOSC()[0]
	require.Equal(t, "/input/Jump", sent.address)
	require.Equal(t, param.Bool(true), sent.value)

	waitFor(t, func() bool { return len(other.updates()) == 1 }, "broadcast to other session")
	require.Empty(t, origin.updates(), "originating session is not echoed")
}

func TestWebSetRejections(t *testing.T) {
	fx := startHub(t)
	origin, other := &fakeSession{}, &fakeSession{}
	fx.hub.Register(origin)
	fx.hub.Register(other)

	fx.hub.SetParameter(origin, "/unknown/addr", float64(1))
	fx.hub.SetParameter(origin, "/input/Jump", float64(0.5)) // bool parameter
	// A valid one after the rejects proves they were dropped, not queued.
	fx.hub.SetParameter(origin, "/usercamera/Zoom", float64(80))

	waitFor(t, func() bool { return len(other.updates()) == 1 }, "valid update")
	require.Equal(t, "/usercamera/Zoom", other.updates()[0].Address)
	require.Len(t, fx.sender.sentOSC(), 1)
}

func TestAvatarChangeMergesAndResyncs(t *testing.T) {
	fx := startHub(t)
	s := &fakeSession{}
	fx.hub.Register(s)
	waitFor(t, func() bool { return len(s.snapshots()) == 1 }, "registration")

	// VRMode collides with the builtin /avatar/parameters/VRMode.
	config := `{"id":"avtr_x","parameters":[
		{"name":"Emote","input":{"address":"/avatar/parameters/Emote","type":"Int"}},
		{"name":"VRMode","input":{"address":"/avatar/parameters/VRMode","type":"Bool"}}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "avtr_x.json"), []byte(config), 0o644))

	fx.osc <- oscmanager.Event{Kind: oscmanager.EventAvatarChange, AvatarID: "avtr_x"}

	waitFor(t, func() bool { return len(s.snapshots()) == 2 }, "resync snapshot")
	snap := s.snapshots()[1]
	require.Equal(t, "avtr_x", snap.Avatar)
	require.Equal(t, 1, snap.Dropped)

	var names []string
	for _, p := range snap.Parameters {
		if p.Origin == "custom" {
			names = append(names, p.Name)
		}
	}
	require.Equal(t, []string{"Emote"}, names)

	// The colliding builtin keeps its declared type.
	for _, p := range snap.Parameters {
		if p.Address == "/avatar/parameters/VRMode" {
			require.Equal(t, "Int", p.Type)
			require.Equal(t, "builtin", p.Origin)
		}
	}
}

func TestSequentialAvatarChangesLeaveNoResidue(t *testing.T) {
	fx := startHub(t)
	s := &fakeSession{}
	fx.hub.Register(s)
	waitFor(t, func() bool { return len(s.snapshots()) == 1 }, "registration")

	first := `{"parameters":[{"name":"Old","input":{"type":"Bool"}}]}`
	second := `{"parameters":[{"name":"New","input":{"type":"Float"}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "avtr_a.json"), []byte(first), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "avtr_b.json"), []byte(second), 0o644))

	fx.osc <- oscmanager.Event{Kind: oscmanager.EventAvatarChange, AvatarID: "avtr_a"}
	fx.osc <- oscmanager.Event{Kind: oscmanager.EventAvatarChange, AvatarID: "avtr_b"}

	waitFor(t, func() bool { return len(s.snapshots()) == 3 }, "both resyncs")
	snap := s.snapshots()[2]

	var names []string
	for _, p := range snap.Parameters {
		if p.Origin == "custom" {
			names = append(names, p.Name)
		}
	}
	require.Equal(t, []string{"New"}, names)
}

func TestAvatarChangeWithoutConfig(t *testing.T) {
	fx := startHub(t)
	s := &fakeSession{}
	fx.hub.Register(s)
	waitFor(t, func() bool { return len(s.snapshots()) == 1 }, "registration")

	fx.osc <- oscmanager.Event{Kind: oscmanager.EventAvatarChange, AvatarID: "avtr_ghost"}

	waitFor(t, func() bool { return len(s.snapshots()) == 2 }, "resync snapshot")
	snap := s.snapshots()[1]
	require.Equal(t, "avtr_ghost", snap.Avatar)
	require.Equal(t, len(param.Builtins()), len(snap.Parameters), "no custom parameters for this avatar")
}

func TestConfigRewriteReloadsActiveAvatar(t *testing.T) {
	fx := startHub(t)
	s := &fakeSession{}
	fx.hub.Register(s)
	waitFor(t, func() bool { return len(s.snapshots()) == 1 }, "registration")

	path := filepath.Join(fx.dir, "avtr_live.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"parameters":[{"name":"A","input":{"type":"Bool"}}]}`), 0o644))
	fx.osc <- oscmanager.Event{Kind: oscmanager.EventAvatarChange, AvatarID: "avtr_live"}
	waitFor(t, func() bool { return len(s.snapshots()) == 2 }, "initial merge")

	// Rewrite the active avatar's file and signal the path.
	require.NoError(t, os.WriteFile(path, []byte(`{"parameters":[{"name":"B","input":{"type":"Bool"}}]}`), 0o644))
	fx.reload <- path

	waitFor(t, func() bool { return len(s.snapshots()) == 3 }, "reload resync")
	var names []string
	for _, p := range s.snapshots()[2].Parameters {
		if p.Origin == "custom" {
			names = append(names, p.Name)
		}
	}
	require.Equal(t, []string{"B"}, names)

	// A foreign file changing is not a reload trigger.
	fx.reload <- filepath.Join(fx.dir, "avtr_other.json")
	fx.hub.Chatbox("sync", true, true) // fence: processed after the reload event
	waitFor(t, func() bool { return len(fx.sender.chatTexts()) == 1 }, "fence")
	require.Len(t, s.snapshots(), 3)
}

func TestUnregisterStopsBroadcasts(t *testing.T) {
	fx := startHub(t)
	s1, s2 := &fakeSession{}, &fakeSession{}
	fx.hub.Register(s1)
	fx.hub.Register(s2)
	waitFor(t, func() bool { return len(s2.snapshots()) == 1 }, "registration")

	fx.hub.Unregister(s1)
	fx.hub.Chatbox("fence", true, true) // same queue as Unregister, so it is done first
	waitFor(t, func() bool { return len(fx.sender.chatTexts()) == 1 }, "fence")

	fx.osc <- oscmanager.Event{Kind: oscmanager.EventParameter, Address: "/input/Run", Value: param.Bool(true)}

	waitFor(t, func() bool { return len(s2.updates()) == 1 }, "update for remaining session")
	require.Empty(t, s1.updates(), "unregistered session must not receive broadcasts")
}

func TestChatboxPassthrough(t *testing.T) {
	fx := startHub(t)
	fx.hub.Chatbox("hello world", true, false)
	waitFor(t, func() bool { return len(fx.sender.chatTexts()) == 1 }, "chatbox send")
	require.Equal(t, "hello world", fx.sender.chatTexts()[0])
}
