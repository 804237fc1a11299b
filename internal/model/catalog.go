package model

import "time"

// CatalogModel is a user-registered model: a name the UI selects by, plus the
// upstream endpoint and credential used to reach it.
type CatalogModel struct {
	ID          int64
	Name        string
	DisplayName string
	OwnerID     string
	APIURL      string
	APIKey      string
	CreatedAt   time.Time
}

// ResolvedModel is what a model identifier resolves to for one request:
// where to send it and with what credential.
type ResolvedModel struct {
	EndpointURL     string
	Credential      string
	UpstreamModelID string
}
