// Package ping contains handlers for pinging the server
package ping

import "net/http"

// HandlePing answers liveness probes with an empty 200.
func HandlePing(w http.ResponseWriter, r *http.Request) {}
