package linode

// Region is a Linode region code, e.g. "ap-south".
type Region string

// The closed set of regions the bot offers. Codes are what the API expects,
// names are what the operator sees on the keyboard.
const (
	Dallas    Region = "us-central"
	Singapore Region = "ap-south"
	Frankfurt Region = "eu-central"
	London    Region = "eu-west"
	Amsterdam Region = "nl-ams"
	Milan     Region = "it-mil"
	Paris     Region = "fr-par"
	Madrid    Region = "es-mad"
)

var regionNames = map[Region]string{
	Dallas:    "DALLAS",
	Singapore: "SINGAPORE",
	Frankfurt: "FRANKFURT",
	London:    "LONDON",
	Amsterdam: "AMSTERDAM",
	Milan:     "MILAN",
	Paris:     "PARIS",
	Madrid:    "MADRID",
}

// regionOrder fixes the display order of the region keyboard.
var regionOrder = []Region{
	Dallas, Singapore, Frankfurt, London,
	Amsterdam, Milan, Paris, Madrid,
}

// Regions returns all known regions in display order.
func Regions() []Region {
	out := make([]Region, len(regionOrder))
	copy(out, regionOrder)
	return out
}

// Name returns the display name of the region, or the raw code if unknown.
func (r Region) Name() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return string(r)
}

// Code returns the API code of the region.
func (r Region) Code() string {
	return string(r)
}

// ParseRegion maps an API code back to a Region. The second return reports
// whether the code belongs to the known set.
func ParseRegion(code string) (Region, bool) {
	r := Region(code)
	_, ok := regionNames[r]
	return r, ok
}
