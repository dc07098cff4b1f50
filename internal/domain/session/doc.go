/*
Package session tracks live WebSocket connections by client identifier.

# Overview

Each accepted connection becomes a Session carrying the client-chosen
identifier from the URL path and a gateway-minted connection ID. The
Registry maps client identifiers to sessions and is the only shared
state between connections.

# Duplicate Identifiers

Registering an identifier that is already present closes the previous
connection and replaces it. The newest connection always wins; the old
connection's goroutine notices the closed transport and tears down
without touching the replacement, because teardown compares session
identity rather than just the identifier.

# Delivery Semantics

Send reports whether delivery was attempted, not whether it succeeded.
A write failure closes and evicts the session immediately so later sends
to the same identifier become no-ops.
*/
package session
