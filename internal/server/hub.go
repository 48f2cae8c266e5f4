// Package server coordinates client admission, message broadcast, and
// connection cleanup for the chat system via the Hub type.
package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrHubFull is returned by Register when the subscriber limit is reached.
var ErrHubFull = errors.New("hub at capacity")

// Hub manages all connected chat clients and fans every published message out
// to the full subscriber set. Publishes are serialized through the hub's run
// loop, so all clients that receive two messages receive them in the same
// relative order. A client whose send buffer is full is dropped rather than
// allowed to stall delivery to everyone else.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates and initializes a new Hub instance. The returned Hub is
// ready to admit clients once Run is started.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

var hub = NewHub()

// Count returns the number of currently subscribed clients.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Register admits an authenticated client to the broadcast set; the caller
// starts its pumps with startPumps once the join notice has been published.
// It fails with ErrHubFull once the configured client limit is reached;
// this is the system's sole admission control and rejected clients are not
// queued.
func (h *Hub) Register(c *Client) error {
	if c == nil {
		return errors.New("nil client")
	}

	if err := h.ctx.Err(); err != nil {
		return err
	}

	maxClients := currentConfig().MaxClients

	h.mutex.Lock()
	if len(h.clients) >= maxClients {
		h.mutex.Unlock()
		return ErrHubFull
	}
	c.closed = false
	h.clients[c] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	incr(metricClients, 1)
	log.Printf("Client %q registered from %s. Total clients: %d", c.username, c.addr, clientCount)

	return nil
}

// startPumps launches a registered client's pump goroutines. It runs after
// the join notice is published, so a client's join always precedes its chat
// messages in the hub's delivery order.
func (h *Hub) startPumps(c *Client) {
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// Unregister asks the hub to remove a client. Safe to call after shutdown.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// Broadcast publishes a message to every currently subscribed client.
func (h *Hub) Broadcast(text string) {
	select {
	case h.broadcast <- []byte(text):
	case <-h.ctx.Done():
	}
}

// Run starts the hub's main event loop, handling departures and message
// fan-out. This method should be called in a separate goroutine as it runs
// until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.unregister:
			h.removeClients([]*Client{client})

		case payload := <-h.broadcast:
			h.deliver(payload)
		}
	}
}

// deliver fans a payload out to every subscribed client. Clients that cannot
// keep up are removed so a single slow connection never blocks the rest.
func (h *Hub) deliver(payload []byte) {
	incr(metricMessages, 1)

	clients := h.getClientSnapshot()

	var lagging []*Client
	for _, client := range clients {
		if !h.safeSend(client, payload) {
			lagging = append(lagging, client)
		}
	}

	h.removeClients(lagging)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients.
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// safeSend attempts a non-blocking delivery to one client. It returns false
// if the client is gone or its send buffer is full.
func (h *Hub) safeSend(client *Client, payload []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		incr(metricDrops, 1)
		return false
	}
}

// removeClients unsubscribes the given clients and publishes one departure
// notice per removed client. The membership check makes the removal, and
// therefore the departure notice, happen at most once per client.
func (h *Hub) removeClients(clients []*Client) {
	if len(clients) == 0 {
		return
	}

	var channelsToClose []chan []byte
	var departed []string

	h.mutex.Lock()
	for _, client := range clients {
		if _, exists := h.clients[client]; !exists {
			continue
		}
		delete(h.clients, client)
		client.closed = true
		channelsToClose = append(channelsToClose, client.send)
		if client.username != "" {
			departed = append(departed, client.username)
		}
		log.Printf("Client %q from %s unregistered. Total clients: %d", client.username, client.addr, len(h.clients))
	}
	h.mutex.Unlock()

	// Close the channels after releasing the lock.
	for _, ch := range channelsToClose {
		close(ch)
	}

	for range channelsToClose {
		decr(metricClients, 1)
	}

	// Departure notices are delivered inline: removeClients only ever runs on
	// the hub's run loop goroutine, so inline delivery keeps the publish order
	// serialized without going back through the broadcast channel.
	for _, username := range departed {
		h.deliver([]byte(noticeLeft(username)))
	}
}

// shutdownClients closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		client.closed = true
	}
	h.clients = make(map[*Client]bool)
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		decr(metricClients, 1)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing client connection from %s: %v", client.addr, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all client
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()

	// Wait for Run() to complete.
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
