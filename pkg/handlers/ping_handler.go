package handlers

import "net/http"

const HeaderPeerID = "X-Peer-Id"

// NewPingHandler - liveness probe for a hosted endpoint; answers with the endpoint's peer id.
func NewPingHandler(peerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderPeerID, peerID)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("pong")); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
