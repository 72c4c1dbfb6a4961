// Package websocket provides the WebSocket transport of the battleships server.
//
// The websocket package implements:
//   - Connection upgrade with an origin allow list
//   - The server join handshake on the first frame
//   - Read and write pumps with ping/pong keepalive
//   - Disconnect cleanup of the client and its game membership
//
// Message Protocol:
//
// Every frame is one JSON envelope:
//
//	{"type": "GameJoinPlayerRequest", "id": "<uuid>", "payload": {"gameId": 3}}
//
// The first frame of a connection must be a ServerJoinRequest. The server
// answers with ServerJoinResponse carrying the client ID, or with an
// ErrorNotification followed by a close frame.
//
// Usage:
//
//	hub := websocket.NewHub(dispatcher, settings.Server.AllowedOrigins, log)
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Backpressure:
//
// Each connection owns a bounded send buffer. Broadcasts never block on a
// slow peer; a peer whose buffer is full is disconnected instead.
package websocket
