package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AccountUpdateHandler receives raw base64 account payloads pushed by the
// node for a subscribed address.
type AccountUpdateHandler func(address string, lamports uint64, base64Data string, slot uint64)

// WSClient is a minimal accountSubscribe client. It owns one connection,
// re-dials on read failure, and replays all subscriptions after reconnect.
type WSClient struct {
	url            string
	conn           *websocket.Conn
	mu             sync.RWMutex
	subscriptions  map[uint64]*subscription
	handlers       map[uint64]AccountUpdateHandler
	nextID         uint64
	reconnectDelay time.Duration
	connected      bool
	log            *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
}

type subscription struct {
	id      uint64
	address string
	// remote subscription id assigned by the node; zero until confirmed
	remoteID uint64
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Data     []interface{} `json:"data"`
				Lamports uint64        `json:"lamports"`
			} `json:"value"`
		} `json:"result"`
		Subscription uint64 `json:"subscription"`
	} `json:"params"`
}

// NewWSClient dials the node and starts the read and reconnect loops.
func NewWSClient(ctx context.Context, wsURL string, log *slog.Logger) (*WSClient, error) {
	if log == nil {
		log = slog.Default()
	}
	clientCtx, cancel := context.WithCancel(ctx)
	c := &WSClient{
		url:            wsURL,
		subscriptions:  make(map[uint64]*subscription),
		handlers:       make(map[uint64]AccountUpdateHandler),
		nextID:         1,
		reconnectDelay: 5 * time.Second,
		log:            log,
		ctx:            clientCtx,
		cancel:         cancel,
	}
	if err := c.connect(); err != nil {
		cancel()
		return nil, err
	}
	go c.readLoop()
	go c.reconnectLoop()
	return c, nil
}

func (c *WSClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("websocket connected", "url", c.url)
	return nil
}

// SubscribeAccount registers for base64 account updates at confirmed
// commitment and returns the local subscription id.
func (c *WSClient) SubscribeAccount(address string, handler AccountUpdateHandler) (uint64, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.subscriptions[id] = &subscription{id: id, address: address}
	c.mu.Unlock()

	if err := c.send(subscribeRequest(id, address)); err != nil {
		c.mu.Lock()
		delete(c.handlers, id)
		delete(c.subscriptions, id)
		c.mu.Unlock()
		return 0, err
	}
	return id, nil
}

// Unsubscribe tears down one subscription.
func (c *WSClient) Unsubscribe(id uint64) error {
	c.mu.Lock()
	sub, ok := c.subscriptions[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("subscription %d not found", id)
	}
	remoteID := sub.remoteID
	delete(c.subscriptions, id)
	delete(c.handlers, id)
	c.mu.Unlock()

	if remoteID == 0 {
		return nil
	}
	return c.send(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "accountUnsubscribe",
		Params:  []interface{}{remoteID},
	})
}

func subscribeRequest(id uint64, address string) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "accountSubscribe",
		Params: []interface{}{
			address,
			map[string]interface{}{"encoding": "base64", "commitment": "confirmed"},
		},
	}
}

func (c *WSClient) send(req rpcRequest) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WSClient) readLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			c.log.Warn("websocket read failed", "error", err)
			c.mu.Lock()
			c.connected = false
			if c.conn == conn {
				conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()
			time.Sleep(100 * time.Millisecond)
			continue
		}
		c.dispatch(message)
	}
}

func (c *WSClient) dispatch(message []byte) {
	var note notification
	if err := json.Unmarshal(message, &note); err == nil && note.Method == "accountNotification" {
		c.handleNotification(note)
		return
	}

	var resp rpcResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		c.log.Warn("unparseable websocket message", "error", err)
		return
	}
	if resp.Error != nil {
		c.log.Warn("websocket rpc error", "code", resp.Error.Code, "message", resp.Error.Message)
		return
	}
	var remoteID uint64
	if err := json.Unmarshal(resp.Result, &remoteID); err != nil {
		return
	}
	c.mu.Lock()
	if sub, ok := c.subscriptions[resp.ID]; ok {
		sub.remoteID = remoteID
	}
	c.mu.Unlock()
}

func (c *WSClient) handleNotification(note notification) {
	c.mu.RLock()
	var handler AccountUpdateHandler
	var address string
	for _, sub := range c.subscriptions {
		if sub.remoteID == note.Params.Subscription {
			handler = c.handlers[sub.id]
			address = sub.address
			break
		}
	}
	c.mu.RUnlock()
	if handler == nil {
		return
	}

	var data string
	if len(note.Params.Result.Value.Data) > 0 {
		data, _ = note.Params.Result.Value.Data[0].(string)
	}
	handler(address, note.Params.Result.Value.Lamports, data, note.Params.Result.Context.Slot)
}

func (c *WSClient) reconnectLoop() {
	ticker := time.NewTicker(c.reconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.RLock()
		connected := c.connected
		c.mu.RUnlock()
		if connected {
			continue
		}

		if err := c.connect(); err != nil {
			c.log.Warn("websocket reconnect failed", "error", err)
			continue
		}
		c.resubscribeAll()
	}
}

func (c *WSClient) resubscribeAll() {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		sub.remoteID = 0
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.send(subscribeRequest(sub.id, sub.address)); err != nil {
			c.log.Warn("resubscribe failed", "address", sub.address, "error", err)
		}
	}
}

// IsConnected reports connection health.
func (c *WSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close stops the loops and closes the connection.
func (c *WSClient) Close() error {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
