package scraper

// CSS selectors for the target board's two page shapes
const (
	// Search results page
	searchResultSelector = "li.cl-static-search-result"
	resultTitleSelector  = "div.title"
	resultPriceSelector  = "div.price"
	resultLocSelector    = "div.location"

	// Listing detail page
	attrGroupSelector = "div.attrgroup"
	importantSelector = "span.attr.important"
	addressSelector   = "h2.street-address"
	catsSelector      = "div.pets_cat"
	dogsSelector      = "div.pets_dog"
)

// The third attribute group on a detail page carries pets, laundry, parking
// and miscellaneous amenity lines.
const extraAttrGroupIndex = 2
