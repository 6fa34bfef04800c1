// internal/models/business.go
package models

// Business is the registration record stored at business:{id}.
type Business struct {
	ID               string   `json:"id"`
	BusinessName     string   `json:"businessName"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Address          string   `json:"address,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	ZipCode          string   `json:"zipCode,omitempty"`
	Category         string   `json:"category,omitempty"`
	Subcategory      string   `json:"subcategory,omitempty"`
	AllCategories    []string `json:"allCategories,omitempty"`
	AllSubcategories []string `json:"allSubcategories,omitempty"`
	Services         []string `json:"services,omitempty"`
	Description      string   `json:"description,omitempty"`
	Website          string   `json:"website,omitempty"`
	IsNationwide     bool     `json:"isNationwide,omitempty"`
	ServiceRadius    float64  `json:"serviceRadius,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

// CategorySelection is one entry of the category/subcategory pairs a
// business picked during registration.
type CategorySelection struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	FullPath    string `json:"fullPath,omitempty"`
}

// AdDesignBusinessInfo is the display override block stored under
// business:{id}:adDesign:businessInfo (or nested in business:{id}:adDesign).
// Non-empty fields take precedence over the registration record.
type AdDesignBusinessInfo struct {
	BusinessName  string `json:"businessName,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Phone         string `json:"phone,omitempty"`
	StreetAddress string `json:"streetAddress,omitempty"`
	ZipCode       string `json:"zipCode,omitempty"`
}

// AdDesignData wraps the display override block.
type AdDesignData struct {
	BusinessInfo *AdDesignBusinessInfo `json:"businessInfo,omitempty"`
}
