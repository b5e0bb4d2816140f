package entities

// DocumentInfo is what the document collaborator knows about a generated document
type DocumentInfo struct {
	ID            string            `json:"id"`
	Type          DocumentType      `json:"type"`
	URL           string            `json:"url"`
	DisplayFields map[string]string `json:"displayFields,omitempty"`
}

// SignatureNotice is the payload handed to the notification sender
type SignatureNotice struct {
	Email        string            `json:"email"`
	SignatureID  string            `json:"signatureId"`
	DocumentType DocumentType      `json:"documentType"`
	SignerName   string            `json:"signerName"`
	DealInfo     map[string]string `json:"dealInfo,omitempty"`
	SigningURL   string            `json:"signingUrl,omitempty"`
}
