package wallet

import "zondwallet/pkg/models"

// EventType defines the type of event being broadcast. EventAccountsLoading
// only toggles the loading flag; EventAccountsUpdated carries a freshly
// built account list.
type EventType string

const (
	EventNetworkSwitched      EventType = "network_switched"
	EventConnectionUpdated    EventType = "connection_updated"
	EventAccountsLoading      EventType = "accounts_loading"
	EventAccountsUpdated      EventType = "accounts_updated"
	EventActiveAccountUpdated EventType = "active_account_updated"
)

// Event carries the state published by a mutation.
type Event struct {
	Type     EventType       `json:"type"`
	Snapshot models.Snapshot `json:"snapshot"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
