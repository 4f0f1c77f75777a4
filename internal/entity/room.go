package entity

// Room - a hosted endpoint registered under a rendezvous code.
type Room struct {
	Code   string `json:"code"`
	Addr   string `json:"addr"`
	HostID string `json:"host_id"`
}
