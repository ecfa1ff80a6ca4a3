package entities

import "time"

type ProxyType string

const (
	ProxyTypeDigital  ProxyType = "DIGITAL"
	ProxyTypePDF      ProxyType = "PDF"
	ProxyTypeOperator ProxyType = "OPERATOR"
)

type ProxyStatus string

const (
	ProxyStatusPending  ProxyStatus = "PENDING"
	ProxyStatusApproved ProxyStatus = "APPROVED"
	ProxyStatusRevoked  ProxyStatus = "REVOKED"
	ProxyStatusExpired  ProxyStatus = "EXPIRED"
)

func (s ProxyStatus) Terminal() bool {
	return s == ProxyStatusRevoked || s == ProxyStatusExpired
}

// Proxy delegates one principal's voting rights to a representative.
// RepresentativeID stays empty until a document-only delegate is resolved.
type Proxy struct {
	ProxyID           string
	AssemblyID        string
	PrincipalID       string
	RepresentativeID  string
	ExternalName      string
	ExternalDocNumber DocumentID
	Type              ProxyType
	Status            ProxyStatus
	DocumentURL       string
	RegisteredBy      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
