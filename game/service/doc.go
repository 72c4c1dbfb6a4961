// Package service provides the request handling layer of the battleships server.
//
// The service package implements:
//   - Dispatcher, which routes decoded client requests to one handler each
//   - Role checks and the lobby guard for player joins
//   - Mapping of registry and engine errors to wire error types
//   - AdminService, the operator operations behind the REST and MCP surfaces
//
// Core Interfaces:
//
// GameRegistry and ClientDirectory are the parts of session.Manager and
// client.Registry the handlers depend on. PresetStore resolves named
// configurations and is implemented by config.Manager.
//
// Architecture:
//
// Transports decode a frame with message.Decode and hand it to
// Dispatcher.Dispatch together with the sender's client ID. The handler's
// response goes back to the sender; a failure is reported as an
// ErrorNotification carrying the request's envelope ID. A client that
// disconnects while its request is in flight gets no reply at all, the
// failure is logged as ErrClientGone.
//
// Usage:
//
//	d := service.NewDispatcher(games, clients, presets, log)
//
//	c, err := d.Join(ctx, joinRequest, conn)
//	if err != nil {
//		return err
//	}
//	defer d.Leave(ctx, c.ID)
//
//	req, ref, err := message.Decode(frame)
//	if err != nil {
//		return d.Reject(c.ID, ref, err)
//	}
//	err = d.Dispatch(ctx, c.ID, req, ref)
package service
