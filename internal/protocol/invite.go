package protocol

import (
	"fmt"
	"net/url"
)

// BuildInviteURI renders the codehive:// URI a peer can share out of
// band to invite others into a room (spec §6).
func BuildInviteURI(host string, port int, code string, password string) string {
	uri := fmt.Sprintf("codehive://%s:%d/join/%s", host, port, code)
	if password != "" {
		uri += "?password=" + url.QueryEscape(password)
	}
	return uri
}
