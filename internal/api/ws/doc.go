// Package ws provides the WebSocket endpoint for streaming chat.
//
// A client connects to /ws/chat/{client_id} and sends each user message
// as a plain text frame. The gateway streams the assistant's reply back
// as a sequence of text fragments followed by a terminator frame, so the
// client can render output incrementally and still knows exactly where
// one reply ends and the next begins.
//
// Frames (Client → Server):
//   - any text frame: the next user message for this conversation turn
//
// Frames (Server → Client):
//   - fragment: a chunk of assistant output, in arrival order
//   - "Error: <cause>": the turn failed after zero or more fragments
//   - "[[END_OF_MESSAGE]]": the turn is over, success or failure
//
// Turns are strictly sequential per connection: the read loop does not
// consume the next client frame until the current turn has completed.
// Connecting again with the same client_id closes the previous
// connection and takes over delivery.
//
// Example Usage:
//
//	handler := ws.NewHandler(registry, relay, logger, metrics)
//	router.GET("/ws/chat/:client_id", handler.HandleConnection)
package ws
