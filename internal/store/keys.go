// internal/store/keys.go
package store

import "strings"

// Key prefixes and well-known keys in the directory keyspace.
const (
	BusinessPrefix = "business:"
	CategoryPrefix = "category:"
	ZipPrefix      = "zip:"

	BusinessesSetKey     = "businesses"
	BlockedBusinessesKey = "businesses:blocked"
	ZipIndexStatePrefix  = "zip:index:state:"
	ZipIndexCityPrefix   = "zip:index:city:"
	ZipMetaKey           = "zip:meta"
)

// BusinessKey is the registration record key for a business.
func BusinessKey(id string) string {
	return BusinessPrefix + id
}

// BusinessCategoriesKey holds the derived category list for a business.
func BusinessCategoriesKey(id string) string {
	return BusinessPrefix + id + ":categories"
}

// BusinessSelectedCategoriesKey holds the raw category selections.
func BusinessSelectedCategoriesKey(id string) string {
	return BusinessPrefix + id + ":selectedCategories"
}

// BusinessAllSubcategoriesKey holds the full subcategory paths.
func BusinessAllSubcategoriesKey(id string) string {
	return BusinessPrefix + id + ":allSubcategories"
}

// BusinessNationwideKey flags a business serving every ZIP.
func BusinessNationwideKey(id string) string {
	return BusinessPrefix + id + ":nationwide"
}

// BusinessZipCodesKey is the JSON document of service-area ZIP entries.
func BusinessZipCodesKey(id string) string {
	return BusinessPrefix + id + ":zipcodes"
}

// BusinessZipCodesSetKey is the legacy set form of the service area.
func BusinessZipCodesSetKey(id string) string {
	return BusinessPrefix + id + ":zipcodes:set"
}

// BusinessAdDesignKey is the full ad design document.
func BusinessAdDesignKey(id string) string {
	return BusinessPrefix + id + ":adDesign"
}

// BusinessAdDesignInfoKey is the display override block on its own.
func BusinessAdDesignInfoKey(id string) string {
	return BusinessPrefix + id + ":adDesign:businessInfo"
}

// BusinessDeletedKey is the tombstone left by removal.
func BusinessDeletedKey(id string) string {
	return BusinessPrefix + id + ":deleted"
}

// CategoryBusinessesKey is the inverted index of businesses under a
// category path.
func CategoryBusinessesKey(path string) string {
	return CategoryPrefix + path + ":businesses"
}

// CategoryFromIndexKey recovers the category path from its index key.
// Returns "" when key is not a category index key.
func CategoryFromIndexKey(key string) string {
	if !strings.HasPrefix(key, CategoryPrefix) || !strings.HasSuffix(key, ":businesses") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(key, CategoryPrefix), ":businesses")
}

// ZipKey is the geo record key for a ZIP code.
func ZipKey(zip string) string {
	return ZipPrefix + zip
}

// ZipStateIndexKey is the set of ZIPs in a state.
func ZipStateIndexKey(state string) string {
	return ZipIndexStatePrefix + strings.ToUpper(state)
}

// ZipCityIndexKey is the set of ZIPs in a city. City names are folded
// to lowercase with underscores so lookups survive caller formatting.
func ZipCityIndexKey(city, state string) string {
	folded := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(city), " ", "_"))
	return ZipIndexCityPrefix + folded + "_" + strings.ToUpper(state)
}

// IsZipIndexKey reports whether key is a geo index or metadata key
// rather than a ZIP record. Radius scans must skip these.
func IsZipIndexKey(key string) bool {
	return strings.HasPrefix(key, "zip:index:") || key == ZipMetaKey
}
