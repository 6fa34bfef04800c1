// internal/category/pagepaths.go
package category

import "strings"

// pagePathCategories maps directory page paths to the exact category
// names used in the index keys.
var pagePathCategories = map[string]string{
	"/home-improvement":                       "Home, Lawn, and Manual Labor",
	"/home-improvement/lawn-garden":           "Lawn, Garden and Snow Removal",
	"/home-improvement/outside-maintenance":   "Outside Home Maintenance and Repair",
	"/home-improvement/outdoor-structures":    "Outdoor Structure Assembly/Construction and Fencing",
	"/home-improvement/pool-services":         "Pool Services",
	"/home-improvement/asphalt-concrete":      "Asphalt, Concrete, Stone and Gravel",
	"/home-improvement/construction-design":   "Home Construction and Design",
	"/home-improvement/inside-maintenance":    "Inside Home Maintenance and Repair",
	"/home-improvement/windows-doors":         "Windows and Doors",
	"/home-improvement/flooring":              "Floor/Carpet Care and Installation",
	"/home-improvement/audio-visual-security": "Audio/Visual and Home Security",
	"/home-improvement/hazard-mitigation":     "Home Hazard Mitigation",
	"/home-improvement/pest-control":          "Pest Control/ Wildlife Removal",
	"/home-improvement/trash-cleanup":         "Trash Cleanup and Removal",
	"/home-improvement/cleaning":              "Home and Office Cleaning",
	"/home-improvement/fireplaces-chimneys":   "Fireplaces and Chimneys",
	"/home-improvement/movers":                "Movers/Moving Trucks",
	"/home-improvement/handymen":              "Handymen",
	"/retail-stores":                          "Retail Stores",
	"/travel-vacation":                        "Travel and Vacation",
	"/tailoring-clothing":                     "Tailors, Dressmakers, and Fabric and Clothes Cleaning and Repair",
	"/arts-entertainment":                     "Art, Design and Entertainment",
	"/physical-rehabilitation":                "Physical Rehabilitation",
	"/financial-services":                     "Insurance, Finance, Debt and Sales",
	"/weddings-events":                        "Weddings and Special Events",
	"/pet-care":                               "Pet Care",
	"/education-tutoring":                     "Language Lessons/School Subject Tutoring",
	"/real-estate":                            "Home Buying and Selling",
	"/fitness-athletics":                      "Athletics, Personal Trainers, Group Fitness Classes and Dance Instruction",
	"/music-lessons":                          "Music",
	"/care-services":                          "Home Care",
	"/automotive-services":                    "Automotive/Motorcycle/RV, etc",
	"/beauty-wellness":                        "Hair care, Beauty, Tattoo and Piercing",
	"/medical-practitioners":                  "Medical Practitioners - non MD/DO",
	"/mental-health":                          "Counselors, Psychologists, Addiction Specialists, Team Building",
	"/tech-it-services":                       "Computers and the Web",
	"/food-dining":                            "Restaurant, Food and Drink",
	"/personal-assistants":                    "Assistants",
	"/funeral-services":                       "Mortuary Services",
	"/legal-services":                         "Lawyers",
}

// CategoryForPagePath resolves a page path to its category name.
// Returns "" when the path has no mapping.
func CategoryForPagePath(pagePath string) string {
	return pagePathCategories[strings.ToLower(strings.TrimSpace(pagePath))]
}

// PagePathForCategory resolves a category name back to its page path.
// Returns "" when the category has no page.
func PagePathForCategory(categoryName string) string {
	trimmed := strings.TrimSpace(categoryName)
	for path, name := range pagePathCategories {
		if name == trimmed {
			return path
		}
	}
	return ""
}

// PagePaths returns every mapped page path.
func PagePaths() []string {
	paths := make([]string, 0, len(pagePathCategories))
	for p := range pagePathCategories {
		paths = append(paths, p)
	}
	return paths
}
