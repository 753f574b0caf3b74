package api

import (
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thereceipt/receipt-interpreter/internal/printer"
)

// WebSocket events
const (
	EventPrint          = "print"
	EventPrinterAdded   = "printer_added"
	EventPrinterRemoved = "printer_removed"
	EventJobStatus      = "job_status"
	EventResponse       = "response"
	EventError          = "error"
)

const sendBuffer = 256

// WSMessage is a message sent to clients
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsRequest is a message received from a client
type wsRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// hub tracks connected clients for broadcasts
type hub struct {
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast drops the message for clients whose buffer is full
func (h *hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan WSMessage, sendBuffer),
		server: s,
	}
	s.hub.add(client)
	s.logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.conn.Close()
		c.server.logger.Info("websocket client disconnected")
	}()

	for {
		var req wsRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		c.handleMessage(req)
	}
}

func (c *wsClient) handleMessage(req wsRequest) {
	switch req.Event {
	case EventPrint:
		c.handlePrint(req.Data)
	default:
		c.sendError("unknown event: " + req.Event)
	}
}

func (c *wsClient) handlePrint(data json.RawMessage) {
	var req printRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid print request: " + err.Error())
		return
	}

	job, summary, err := c.server.submit(req)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.reply(WSMessage{Event: EventResponse, Data: map[string]any{
		"success": true,
		"job_id":  job.ID,
		"summary": newSummaryResponse(summary),
	}})
}

func (c *wsClient) sendError(message string) {
	c.reply(WSMessage{Event: EventError, Data: map[string]any{"error": message}})
}

// reply is only called from readPump, which owns removal, so send is open
func (c *wsClient) reply(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		c.server.logger.Warn("websocket client too slow, dropping reply", "event", msg.Event)
	}
}

// BroadcastPrinterAdded tells every client about a new printer
func (s *Server) BroadcastPrinterAdded(device printer.Device) {
	s.hub.broadcast(WSMessage{Event: EventPrinterAdded, Data: device})
}

// BroadcastPrinterRemoved tells every client a printer is gone
func (s *Server) BroadcastPrinterRemoved(id string) {
	s.hub.broadcast(WSMessage{Event: EventPrinterRemoved, Data: map[string]any{"id": id}})
}

// BroadcastJob tells every client about a job status change
func (s *Server) BroadcastJob(job printer.PrintJob) {
	s.hub.broadcast(WSMessage{Event: EventJobStatus, Data: job})
}
