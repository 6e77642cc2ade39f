package tickcoord

import (
	"strings"

	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
	"github.com/TrySpaceOrg/simulith-go/internal/wire"
)

// request is one reply-channel message forwarded from a per-connection
// reader goroutine onto the coordinator's single request queue. The
// registry mutation it triggers only ever happens on the tick-loop
// goroutine that drains requestCh, matching the cooperative single-thread
// core model: request arrival is concurrent, request handling is not.
type request struct {
	payload string
	replyCh chan<- string
}

// handleRequest implements the exact READY/ack dispatch table from
// original_source's simulith_server.c: a "READY <id>" payload registers a
// new client (ACK/DUP_ID/ERR), anything else is treated as a per-tick ack
// from an already-registered client id (ACK even if the id is unknown —
// handle_ack only logs that case, it never fails the request).
func (c *Coordinator) handleRequest(req request) {
	payload := req.payload

	if payload == "" {
		metrics.IncClientRejected()
		req.replyCh <- wire.ReplyERR
		return
	}

	if id, ok := wire.ParseReady(payload); ok {
		c.registerClient(id, req.replyCh)
		return
	}
	if strings.HasPrefix(payload, "READY") {
		c.logger.Warn("handshake_malformed", "payload", payload)
		metrics.IncClientRejected()
		req.replyCh <- wire.ReplyERR
		return
	}

	if !c.registry.ack(payload) {
		c.logger.Warn("ack_unknown_client", "id", payload)
	}
	req.replyCh <- wire.ReplyACK
}

func (c *Coordinator) registerClient(id string, replyCh chan<- string) {
	if c.registry.idTaken(id) {
		c.logger.Warn("client_duplicate", "id", id)
		metrics.IncClientDuplicate()
		replyCh <- wire.ReplyDupID
		return
	}
	if !c.registry.register(id) {
		c.logger.Warn("client_rejected_full", "id", id)
		metrics.IncClientRejected()
		replyCh <- wire.ReplyERR
		return
	}
	metrics.IncClientRegistered()
	metrics.SetActiveClients(c.registry.count())
	c.logger.Info("client_registered", "id", id, "count", c.registry.count(), "expected", c.registry.expected)
	replyCh <- wire.ReplyACK
}
