// Package protocol defines the messages two cribbage peers exchange and the
// channel they are exchanged over.
//
// Every message travels in the same envelope:
//
//	{"type":"PLAY_CARD","timestamp":1718000000000,"messageId":"...","round":2,"payload":{...}}
//
// The payload is a plain JSON object whose fields depend on the type. It is
// kept generic in Message and decoded into the typed payload structs of this
// package with DecodePayload.
//
// Game moves are translated with FromAction and Message.Action, so the
// receiving peer feeds exactly the same cribbage.Action to its state machine
// as the sender did.
package protocol
