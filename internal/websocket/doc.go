// Package websocket streams conversion progress to connected clients.
//
// A Hub is installed as the converter's operations.Notifier. Every batch
// produces one conversion:batch_started event, one conversion:file event per
// input in order, and a closing conversion:batch_completed event. The
// conversion:file event carries the same one-line notice the CLI prints.
//
// Clients connect with GET /api/v1/events and only receive; anything they
// send apart from control frames is discarded.
package websocket
