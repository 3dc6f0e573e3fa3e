// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game handler. These give clients
// more specific reasons for closure than the standard codes.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthError    = 3001 // Provided auth cookie was invalid or expired.
)
