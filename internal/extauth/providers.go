package extauth

// Provider describes an available login method.
type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "standard", "ldap"
}

// Identity is returned after successful external authentication.
type Identity struct {
	Subject     string
	DisplayName string
	Email       string
}
