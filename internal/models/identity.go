package models

import "time"

// Identity is a reporter. ActiveReportCount always equals the number of
// danger points the identity currently owns.
type Identity struct {
	ID                int64     `json:"id"`
	UUID              string    `json:"uuid"`
	Account           string    `json:"account"`
	Name              string    `json:"name"`
	CredentialHash    string    `json:"-"`
	ActiveReportCount int       `json:"count"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// HasCredential reports whether the identity was registered explicitly and
// can log in.
func (i *Identity) HasCredential() bool {
	return i.CredentialHash != ""
}
