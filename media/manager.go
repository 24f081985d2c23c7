package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/tiles"
	"github.com/gogpu/tiles/internal/runloop"
	"github.com/gogpu/tiles/shader"
	"github.com/gogpu/tiles/surface"
)

// Defaults for a Manager.
const (
	DefaultRequestTimeout = 500 * time.Millisecond
	DefaultMaxWindows     = 1
)

var (
	// ErrTimeout means the render goroutine did not service the request in
	// time. The request stays pending.
	ErrTimeout = errors.New("media: window request timed out")

	// ErrWindowLimit means the maximum number of video windows is in use.
	ErrWindowLimit = errors.New("media: window limit reached")

	// ErrRequestPending means another producer is already waiting.
	ErrRequestPending = errors.New("media: another request is waiting")

	// ErrCanceled means the request was withdrawn while waiting.
	ErrCanceled = errors.New("media: window request canceled")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("media: manager closed")
)

// State is the window request state of a Manager.
type State uint8

const (
	Idle State = iota
	Requested
	Ready
	Acquired
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Ready:
		return "ready"
	case Acquired:
		return "acquired"
	}
	return "idle"
}

// Handle addresses a texture wrapper in the manager's slot table.
type Handle uint32

// wrapper binds a texture id to its producer/consumer pair.
type wrapper struct {
	handle    Handle
	textureID uint32
	consumer  *surface.Texture
	listener  *Listener
	dims      shader.Rect
}

func (w *wrapper) window() *surface.Window { return w.consumer.Window() }

// Option configures a Manager.
type Option func(*Manager)

// WithRequestTimeout sets how long RequestNewWindow waits.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithMaxWindows sets the number of video windows that may be in use.
func WithMaxWindows(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxWindows = n
		}
	}
}

// WithConfig applies the window settings of cfg.
func WithConfig(cfg *tiles.Config) Option {
	return func(m *Manager) {
		WithRequestTimeout(cfg.WindowRequestTimeout())(m)
		WithMaxWindows(cfg.MaxVideoWindows)(m)
	}
}

// WithTextureIDs replaces the default IDPool.
func WithTextureIDs(ids TextureIDs) Option {
	return func(m *Manager) {
		if ids != nil {
			m.ids = ids
		}
	}
}

// WithLoop shares an existing render goroutine loop.
func WithLoop(l *runloop.Loop) Option {
	return func(m *Manager) {
		if l != nil {
			m.loop = l
		}
	}
}

// WithInvalidate sets the callback that asks the UI to redraw. It is
// called when a window is requested and whenever a frame arrives.
func WithInvalidate(fn func()) Option {
	return func(m *Manager) {
		m.invalidate = fn
	}
}

// WithPluginDraw sets the callback telling the plugin its content window
// exists.
func WithPluginDraw(fn func()) Option {
	return func(m *Manager) {
		m.pluginDraw = fn
	}
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// Manager is the external texture manager for one media layer.
//
// Thread safety: RequestNewWindow, RequestNewWindowContext,
// CancelWindowRequest, ReleaseNativeWindow, SetDimensions,
// SetFramerateCallback, ContentWindow and the inversion flag may be used
// from any goroutine. InitializeIfNeeded, the Draw methods and Close
// belong to the render goroutine.
type Manager struct {
	program    *shader.Program
	ids        TextureIDs
	loop       *runloop.Loop
	invalidate func()
	pluginDraw func()
	logger     *slog.Logger
	timeout    time.Duration
	maxWindows int

	mu         sync.Mutex
	requested  bool
	wake       chan struct{}
	waiting    bool
	newWindow  *surface.Window
	content    *wrapper
	slots      map[Handle]*wrapper
	videos     []Handle
	nextHandle Handle
	stale      []uint32
	inverted   bool
	closed     bool
}

// New returns a manager drawing through program. A nil program gets a
// fresh shader.Program.
func New(program *shader.Program, opts ...Option) *Manager {
	if program == nil {
		program = shader.NewProgram()
	}
	m := &Manager{
		program:    program,
		ids:        NewIDPool(),
		loop:       runloop.New(),
		timeout:    DefaultRequestTimeout,
		maxWindows: DefaultMaxWindows,
		slots:      make(map[Handle]*wrapper),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return tiles.Logger()
}

// Loop returns the render goroutine queue. The render goroutine must
// drain it, with RunPending once per frame or with Run.
func (m *Manager) Loop() *runloop.Loop { return m.loop }

// Program returns the shader program quads are recorded into.
func (m *Manager) Program() *shader.Program { return m.program }

// State returns the request state. Acquired means at least one video
// window is in use and no request is outstanding.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.requested:
		return Requested
	case m.newWindow != nil:
		return Ready
	case len(m.videos) > 0:
		return Acquired
	}
	return Idle
}

// InitializeIfNeeded runs on the render goroutine. It deletes texture ids
// of released windows, creates the content window once and fulfils a
// pending window request, reusing a released id when one is available.
func (m *Manager) InitializeIfNeeded() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	var reuse uint32
	stale := m.stale
	m.stale = nil
	if m.requested && len(stale) > 0 {
		reuse = stale[len(stale)-1]
		stale = stale[:len(stale)-1]
	}
	for _, id := range stale {
		m.ids.Delete(id)
	}

	notifyPlugin := false
	if m.content == nil {
		m.content = m.newWrapperLocked(m.ids.Create())
		notifyPlugin = true
	}

	if m.requested {
		id := reuse
		if id == 0 {
			id = m.ids.Create()
		}
		w := m.newWrapperLocked(id)
		m.slots[w.handle] = w
		m.videos = append(m.videos, w.handle)
		m.newWindow = w.window()
		m.endRequestLocked()
		m.log().Debug("media: window ready", "handle", w.handle, "texture", id, "reused", reuse != 0)
	}
	m.mu.Unlock()

	if notifyPlugin && m.pluginDraw != nil {
		m.pluginDraw()
	}
}

// RequestNewWindow asks for a video window and waits up to the request
// timeout. It returns nil when the request cannot be served now; the
// caller may retry.
func (m *Manager) RequestNewWindow() *surface.Window {
	w, err := m.request(context.Background(), false)
	if err != nil {
		m.log().Debug("media: window request failed", "err", err)
	}
	return w
}

// RequestNewWindowContext is RequestNewWindow with cancellation. When ctx
// is done before the window is ready the pending request is withdrawn
// and ctx.Err() is returned. A timeout returns ErrTimeout and, as with
// RequestNewWindow, leaves the request pending.
func (m *Manager) RequestNewWindowContext(ctx context.Context) (*surface.Window, error) {
	return m.request(ctx, true)
}

func (m *Manager) request(ctx context.Context, cancelOnDone bool) (*surface.Window, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if w := m.takeReadyLocked(); w != nil {
		m.mu.Unlock()
		return w, nil
	}
	if len(m.videos) >= m.maxWindows {
		m.mu.Unlock()
		return nil, ErrWindowLimit
	}
	if m.waiting {
		m.mu.Unlock()
		return nil, ErrRequestPending
	}
	if !m.requested {
		m.requested = true
		m.wake = make(chan struct{})
	}
	m.waiting = true
	wake := m.wake
	m.mu.Unlock()

	m.loop.Post(m.InitializeIfNeeded)
	if m.invalidate != nil {
		m.invalidate()
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	var done <-chan struct{}
	if cancelOnDone {
		done = ctx.Done()
	}
	timedOut := false
	select {
	case <-wake:
	case <-timer.C:
		timedOut = true
	case <-done:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiting = false
	if w := m.takeReadyLocked(); w != nil {
		return w, nil
	}
	switch {
	case m.closed:
		return nil, ErrClosed
	case cancelOnDone && ctx.Err() != nil:
		m.endRequestLocked()
		return nil, ctx.Err()
	case timedOut:
		return nil, ErrTimeout
	}
	return nil, ErrCanceled
}

// CancelWindowRequest withdraws a pending request, or releases a window
// that became ready but was never taken. It reports whether there was
// anything to cancel.
func (m *Manager) CancelWindowRequest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requested {
		m.endRequestLocked()
		return true
	}
	if m.newWindow != nil {
		w := m.newWindow
		m.newWindow = nil
		return m.releaseLocked(w)
	}
	return false
}

// ReleaseNativeWindow tears down the video window w. Its texture id is
// deleted, or reused, on the render goroutine. Releasing an unknown or
// already released window is a no-op returning false.
func (m *Manager) ReleaseNativeWindow(w *surface.Window) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w != nil && w == m.newWindow {
		m.newWindow = nil
	}
	return m.releaseLocked(w)
}

// SetDimensions sets where the video of w is drawn, relative to the media
// bounds.
func (m *Manager) SetDimensions(w *surface.Window, dims shader.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.videoLocked(w); v != nil {
		v.dims = dims
	}
}

// SetFramerateCallback installs cb for the video window w.
func (m *Manager) SetFramerateCallback(w *surface.Window, cb FramerateCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.videoLocked(w); v != nil {
		v.listener.SetFramerateCallback(cb)
	}
}

// ContentWindow returns the plugin content window, or nil before the
// first InitializeIfNeeded.
func (m *Manager) ContentWindow() *surface.Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.content == nil {
		return nil
	}
	return m.content.window()
}

// Windows returns the number of live video windows.
func (m *Manager) Windows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.videos)
}

// InvertContents sets the inverted-content flag.
func (m *Manager) InvertContents(invert bool) {
	m.mu.Lock()
	m.inverted = invert
	m.mu.Unlock()
}

// IsContentInverted reports the inverted-content flag.
func (m *Manager) IsContentInverted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inverted
}

// Close deletes every texture id immediately and fails pending and future
// requests with ErrClosed. It must run on the render goroutine.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.requested {
		m.endRequestLocked()
	}
	m.newWindow = nil
	for _, h := range m.videos {
		m.deleteLocked(m.slots[h], true)
	}
	m.videos = nil
	clear(m.slots)
	if m.content != nil {
		m.deleteLocked(m.content, true)
		m.content = nil
	}
	for _, id := range m.stale {
		m.ids.Delete(id)
	}
	m.stale = nil
}

func (m *Manager) newWrapperLocked(id uint32) *wrapper {
	m.nextHandle++
	consumer := surface.NewTexture(id)
	w := &wrapper{
		handle:    m.nextHandle,
		textureID: id,
		consumer:  consumer,
		listener:  newListener(consumer.Window(), m.invalidate),
	}
	consumer.SetFrameAvailableListener(w.listener)
	return w
}

// takeReadyLocked hands out a ready window, moving it to Acquired.
func (m *Manager) takeReadyLocked() *surface.Window {
	w := m.newWindow
	m.newWindow = nil
	return w
}

// endRequestLocked leaves the Requested state and wakes a waiter.
func (m *Manager) endRequestLocked() {
	if !m.requested {
		return
	}
	m.requested = false
	close(m.wake)
	m.wake = nil
}

func (m *Manager) videoLocked(w *surface.Window) *wrapper {
	if w == nil {
		return nil
	}
	for _, h := range m.videos {
		if v := m.slots[h]; v.window() == w {
			return v
		}
	}
	return nil
}

func (m *Manager) releaseLocked(w *surface.Window) bool {
	v := m.videoLocked(w)
	if v == nil {
		return false
	}
	for i, h := range m.videos {
		if h == v.handle {
			m.videos = append(m.videos[:i], m.videos[i+1:]...)
			break
		}
	}
	delete(m.slots, v.handle)
	m.deleteLocked(v, false)
	m.loop.Post(m.InitializeIfNeeded)
	m.log().Debug("media: window released", "handle", v.handle, "texture", v.textureID)
	return true
}

// deleteLocked disconnects a wrapper. Without force the texture id is
// queued for the render goroutine.
func (m *Manager) deleteLocked(v *wrapper, force bool) {
	v.consumer.SetFrameAvailableListener(nil)
	v.consumer.Abandon()
	v.dims = shader.Rect{}
	if force {
		m.ids.Delete(v.textureID)
		return
	}
	m.stale = append(m.stale, v.textureID)
}
