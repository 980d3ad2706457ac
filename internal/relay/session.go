package relay

// session is the mutable per-connection state the dispatcher updates
// on every inbound frame. deviceID is taken from each inbound frame's
// envelope; roomCode and name are set once a client has created or
// joined a room and are empty beforehand.
type session struct {
	deviceID string
	roomCode string
	name     string
}
