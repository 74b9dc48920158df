// Package session drives one browser connection of the live editor: it
// applies the browser's input to the shared Editor and pushes previews,
// scroll patches and style changes back.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/copyfeedback"
	"github.com/matnoble/mdeditor/internal/page"
	"github.com/matnoble/mdeditor/internal/render"
	"github.com/matnoble/mdeditor/internal/scroll"
	"github.com/matnoble/mdeditor/internal/styleinject"
	"github.com/matnoble/mdeditor/internal/theme"
)

// Connection tuning.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 20
	sendBuffer     = 256
)

// Session is one live connection. Create it with New and call Run.
type Session struct {
	id        string
	ed        *mdeditor.Editor
	conn      *websocket.Conn
	logger    *slog.Logger
	clipboard copyfeedback.Clipboard
	copyDelay time.Duration

	out   chan any
	dirty chan struct{}

	panes    [2]*remotePane
	scroller *scroll.Synchronizer
	mirror   *page.Page
	tracker  *copyfeedback.Tracker

	mu   sync.Mutex
	last render.Result

	// styleMu orders custom-style reads of the editor state with the mirror
	// update and the message they produce.
	styleMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClipboard mirrors copied code blocks into c.
func WithClipboard(c copyfeedback.Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

// WithCopyDelay overrides how long the copied indicator stays on.
func WithCopyDelay(d time.Duration) Option {
	return func(s *Session) { s.copyDelay = d }
}

// New prepares a session for conn. The page mirror starts from the
// editor's current state, which is what a freshly loaded page shows.
func New(ctx context.Context, ed *mdeditor.Editor, conn *websocket.Conn, opts ...Option) (*Session, error) {
	s := &Session{
		id:        uuid.NewString(),
		ed:        ed,
		conn:      conn,
		clipboard: copyfeedback.NoClipboard{},
		copyDelay: copyfeedback.DefaultRevertDelay,
		out:       make(chan any, sendBuffer),
		dirty:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("session", s.id)

	mirror, err := ed.Page(ctx)
	if err != nil {
		return nil, err
	}
	s.mirror = mirror

	s.panes[scroll.Editor] = &remotePane{side: scroll.Editor, s: s}
	s.panes[scroll.Preview] = &remotePane{side: scroll.Preview, s: s}
	s.scroller = scroll.NewSynchronizer(s.panes[scroll.Editor], s.panes[scroll.Preview])
	s.tracker = copyfeedback.NewTracker(
		copyfeedback.WithDelay(s.copyDelay),
		copyfeedback.WithOnChange(func(id string) {
			s.send(CopiedMessage{Type: TypeCopied, ID: id})
		}),
	)
	return s, nil
}

// ID identifies the session in editor events and logs.
func (s *Session) ID() string {
	return s.id
}

// Run serves the connection until the browser goes away or ctx ends. It
// closes the connection before returning.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := s.ed.Subscribe(s.onEvent)
	defer unsubscribe()
	defer s.tracker.Stop()

	s.logger.Info("session opened")
	defer s.logger.Info("session closed")

	s.sendState()
	s.markDirty()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.renderLoop(ctx)
	}()

	err := s.readLoop(ctx)
	cancel()
	wg.Wait()
	_ = s.conn.Close()
	return err
}

// sendState pushes everything the freshly loaded page may have missed.
func (s *Session) sendState() {
	st := s.ed.State()
	s.send(FlagsMessage{Type: TypeFlags, Flags: st.Flags})
	action := styleinject.Removed
	if styleinject.Wanted(st.ThemeID) {
		action = styleinject.Created
	}
	s.send(StyleMessage{Type: TypeStyle, Action: action.String(), CSS: st.CustomCSS})
}

func (s *Session) readLoop(ctx context.Context) error {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "error", err)
				return err
			}
			return nil
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("invalid message", "error", err)
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg Inbound) {
	switch msg.Type {
	case TypeEdit:
		s.ed.SetTextFrom(s.id, msg.Text)
	case TypeMetrics:
		s.updateMetrics(msg)
	case TypeScroll:
		side, ok := scroll.ParseSide(msg.Pane)
		if !ok {
			s.logger.Warn("unknown pane", "pane", msg.Pane)
			return
		}
		s.updateMetrics(msg)
		s.scroller.HandleScroll(side)
	case TypeTheme:
		s.ed.SetTheme(msg.Theme)
	case TypeCustomCSS:
		s.ed.SetCustomCSS(msg.CSS)
	case TypeCopy:
		s.copyBlock(msg.ID)
	case TypeFormat, TypePolish, TypeTypeset:
		op := mdeditor.Operation(msg.Type)
		go func() {
			if err := s.ed.Run(ctx, op); err != nil {
				s.logger.Debug("operation not applied", "operation", op, "error", err)
			}
		}()
	default:
		s.logger.Warn("unknown message type", "type", msg.Type)
	}
}

func (s *Session) updateMetrics(msg Inbound) {
	if msg.Editor != nil {
		s.panes[scroll.Editor].set(*msg.Editor)
	}
	if msg.Preview != nil {
		s.panes[scroll.Preview].set(*msg.Preview)
	}
}

func (s *Session) copyBlock(id string) {
	s.mu.Lock()
	block, ok := s.last.Block(id)
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("copy of unknown code block", "id", id)
		return
	}
	if err := s.clipboard.WriteAll(block.Code); err != nil {
		s.logger.Warn("clipboard write failed", "error", err)
	}
	s.tracker.Copy(id)
}

// onEvent runs on whichever goroutine changed the editor, so it only
// queues work.
func (s *Session) onEvent(ev mdeditor.Event) {
	switch ev.Kind {
	case mdeditor.EventText:
		if ev.Origin != s.id {
			s.send(TextMessage{Type: TypeText, Text: ev.State.Text})
		}
		s.markDirty()
	case mdeditor.EventTheme:
		s.markDirty()
	case mdeditor.EventCustomCSS:
		s.syncStyle()
	case mdeditor.EventFlags:
		s.send(FlagsMessage{Type: TypeFlags, Flags: ev.State.Flags})
	case mdeditor.EventNotice:
		s.send(NoticeMessage{Type: TypeNotice, Notice: ev.Notice})
	}
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// renderLoop re-renders the preview whenever text or theme changed.
// Bursts of changes collapse into one render.
func (s *Session) renderLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
		}

		res, err := s.ed.Preview(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Error("render failed", "error", err)
			}
			continue
		}
		d := theme.Lookup(res.ThemeID)

		s.mu.Lock()
		s.last = res
		s.mu.Unlock()

		if err := s.mirror.SetPreview(res.HTML); err != nil {
			s.logger.Warn("page mirror out of sync", "error", err)
		}
		s.mirror.SetTheme(d)
		s.scroller.Reset()

		s.send(PreviewMessage{
			Type:       TypePreview,
			HTML:       res.HTML,
			Prose:      d.ProseClass,
			ThemeClass: d.ClassName,
			Font:       d.FontFamily,
			Theme:      d.ID,
		})
		s.syncStyle()
	}
}

// syncStyle applies the custom style invariant for the editor's current
// state to the page mirror and forwards the change, if any, to the browser.
// The state is read under styleMu, so a caller that started from an older
// snapshot can never reapply stale stylesheet text.
func (s *Session) syncStyle() {
	s.styleMu.Lock()
	defer s.styleMu.Unlock()

	st := s.ed.State()
	change := s.mirror.ApplyCustomStyle(st.ThemeID, st.CustomCSS)
	if change == styleinject.None {
		return
	}
	s.send(StyleMessage{Type: TypeStyle, Action: change.String(), CSS: st.CustomCSS})
}

// send queues msg without blocking. A client that stops reading loses
// messages rather than stalling the editor.
func (s *Session) send(msg any) {
	select {
	case s.out <- msg:
	default:
		s.logger.Warn("send buffer full, dropping message")
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Warn("websocket write", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// remotePane is the browser-side pane as last reported.
type remotePane struct {
	side scroll.Side
	s    *Session

	mu sync.Mutex
	m  scroll.Metrics
}

func (p *remotePane) set(m scroll.Metrics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m = m
}

// Metrics implements scroll.Pane.
func (p *remotePane) Metrics() scroll.Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.m
}

// ScrollTo implements scroll.Pane. The browser echoes the move as a scroll
// message, which the Synchronizer swallows.
func (p *remotePane) ScrollTo(offset float64) {
	p.mu.Lock()
	p.m.Offset = offset
	p.mu.Unlock()
	p.s.send(PatchMessage{Type: TypePatch, Pane: p.side.String(), ScrollTop: offset})
}
