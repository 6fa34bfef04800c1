// internal/models/projection.go
package models

// BusinessProjection is the denormalized card built for directory pages.
// Display fields already reflect ad design overrides.
type BusinessProjection struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"displayName"`
	DisplayCity     string   `json:"displayCity,omitempty"`
	DisplayState    string   `json:"displayState,omitempty"`
	DisplayPhone    string   `json:"displayPhone,omitempty"`
	DisplayLocation string   `json:"displayLocation"`
	ZipCode         string   `json:"zipCode,omitempty"`
	Email           string   `json:"email,omitempty"`
	Subcategories   []string `json:"subcategories,omitempty"`
	IsNationwide    bool     `json:"isNationwide,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`

	AdDesign *AdDesignData `json:"adDesignData,omitempty"`
}
