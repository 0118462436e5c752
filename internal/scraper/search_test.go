package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchHTML = `
<html><body>
<ol>
	<li class="cl-static-search-result" title="Sunny 2BR near park">
		<a href="https://sfbay.craigslist.org/sfc/apa/d/sunny-2br/7700001111.html">
			<div class="title">Sunny 2BR near park</div>
			<div class="details">
				<div class="price">$3,200</div>
				<div class="location">mission district</div>
			</div>
		</a>
	</li>
	<li class="cl-static-search-result" title="Studio downtown">
		<a href="https://sfbay.craigslist.org/sfc/apa/d/studio/7700002222.html">
			<div class="title">Studio downtown</div>
			<div class="details">
				<div class="price">$1,850</div>
				<div class="location">soma</div>
			</div>
		</a>
	</li>
	<li class="cl-static-search-result" title="No price posted">
		<a href="https://sfbay.craigslist.org/sfc/apa/d/mystery/7700003333.html">
			<div class="title">No price posted</div>
			<div class="details">
				<div class="location">nob hill</div>
			</div>
		</a>
	</li>
</ol>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	records := ParseSearchResults(docFromString(t, searchHTML))
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "7700001111", first.ExternalID)
	assert.Equal(t, "https://sfbay.craigslist.org/sfc/apa/d/sunny-2br/7700001111.html", first.URL)
	assert.Equal(t, "Sunny 2BR near park", first.Title)
	assert.Equal(t, 3200, first.Price)
	assert.Equal(t, "mission district", first.Location)
	assert.True(t, first.Active)
	assert.False(t, first.ScrapedAt.IsZero())

	assert.Equal(t, "7700002222", records[1].ExternalID)
	assert.Equal(t, 1850, records[1].Price)

	// Missing price comes through as zero; the cleaning pipeline drops it.
	assert.Equal(t, 0, records[2].Price)
}

func TestParseSearchResultsEmptyPage(t *testing.T) {
	records := ParseSearchResults(docFromString(t, `<html><body></body></html>`))
	assert.Empty(t, records)
}

func TestExtractExternalID(t *testing.T) {
	assert.Equal(t, "7700001111", extractExternalID("https://sfbay.craigslist.org/sfc/apa/d/x/7700001111.html"))
	assert.Equal(t, "7700001111", extractExternalID("https://sfbay.craigslist.org/sfc/apa/d/x/7700001111.html?lang=en"))
	assert.Equal(t, "", extractExternalID(""))
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 3200, parsePrice("$3,200"))
	assert.Equal(t, 850, parsePrice("$850"))
	assert.Equal(t, 0, parsePrice("call for price"))
}
