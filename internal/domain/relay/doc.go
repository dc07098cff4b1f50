/*
Package relay forwards assistant output to WebSocket clients.

# Overview

A turn starts when a connected client sends a message. The relay submits
the message upstream as an independent single-turn streaming request and
forwards each text fragment to the client the moment it arrives, with no
buffering or reordering. The sentinel [[END_OF_MESSAGE]] marks the end of
every response.

# Failure Containment

A failed turn sends a single `Error: <message>` fragment followed by the
sentinel and returns the session to its idle state; the connection stays
open for the next turn. Only transport failures end a session.

# Turn Independence

Turns carry no conversation state between them. Each upstream request
lives in its own transient thread, so two consecutive messages from the
same client are unrelated as far as the assistant service is concerned.
*/
package relay
