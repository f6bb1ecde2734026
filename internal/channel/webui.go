package channel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/config"
	"github.com/stellarlinkco/lostfound/internal/logger"
)

//go:embed static
var staticFiles embed.FS

const webUIChannelName = "webui"

// ErrClientGone is returned by Send when the addressed browser session has
// disconnected.
var ErrClientGone = errors.New("webui client not connected")

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	id   string
}

type WebUIChannel struct {
	BaseChannel
	addr    string
	server  *http.Server
	clients sync.Map
	nextID  atomic.Int64
	log     *logger.Logger
}

func NewWebUIChannel(cfg config.WebUIConfig, gwCfg config.GatewayConfig, b *bus.MessageBus) (*WebUIChannel, error) {
	port := gwCfg.Port
	if port == 0 {
		port = config.DefaultPort
	}

	ch := &WebUIChannel{
		BaseChannel: NewBaseChannel(webUIChannelName, b, cfg.AllowFrom),
		addr:        net.JoinHostPort(gwCfg.Host, strconv.Itoa(port)),
		log:         logger.Named(webUIChannelName),
	}
	return ch, nil
}

func (w *WebUIChannel) Start(ctx context.Context) error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("embed static fs: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", func(wr http.ResponseWriter, r *http.Request) {
		w.handleWS(ctx, wr, r)
	})

	w.server = &http.Server{
		Addr:              w.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		w.log.Info().Str("addr", w.addr).Msg("listening")
		if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error().Err(err).Msg("server error")
		}
	}()

	return nil
}

func (w *WebUIChannel) handleWS(ctx context.Context, wr http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(wr, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		w.log.Warn().Err(err).Msg("websocket accept error")
		return
	}

	clientID := fmt.Sprintf("webui-%d", w.nextID.Add(1))
	w.clients.Store(clientID, &wsClient{conn: conn, id: clientID})
	w.log.Debug().Str("client", clientID).Msg("client connected")

	defer func() {
		w.clients.Delete(clientID)
		conn.CloseNow()
		w.log.Debug().Str("client", clientID).Msg("client disconnected")
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if !w.IsAllowed(clientID) {
			w.log.Warn().Str("client", clientID).Msg("rejected message")
			continue
		}

		inbound := bus.InboundMessage{
			Channel:   webUIChannelName,
			SenderID:  clientID,
			ChatID:    clientID,
			Content:   msg.Content,
			Timestamp: time.Now(),
		}
		if name := strings.TrimSpace(msg.Name); name != "" {
			inbound.Metadata = map[string]any{"username": name}
		}
		if !w.publish(ctx, inbound) {
			return
		}
	}
}

// Send writes msg to the client named by ChatID. An empty ChatID
// broadcasts to every connected client.
func (w *WebUIChannel) Send(msg bus.OutboundMessage) error {
	data, err := json.Marshal(wsMessage{
		Type:    "message",
		Content: msg.Content,
	})
	if err != nil {
		return err
	}

	if msg.ChatID == "" {
		w.clients.Range(func(_, value any) bool {
			_ = writeWithTimeout(value.(*wsClient).conn, data)
			return true
		})
		return nil
	}

	client, ok := w.clients.Load(msg.ChatID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientGone, msg.ChatID)
	}
	return writeWithTimeout(client.(*wsClient).conn, data)
}

func writeWithTimeout(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (w *WebUIChannel) Stop() error {
	if w.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.server.Shutdown(ctx); err != nil {
			w.log.Warn().Err(err).Msg("shutdown error")
		}
	}
	w.clients.Range(func(_, value any) bool {
		value.(*wsClient).conn.CloseNow()
		return true
	})
	w.log.Info().Msg("stopped")
	return nil
}
