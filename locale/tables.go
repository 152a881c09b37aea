package locale

// System defaults used when nothing in the input identifies a location.
const (
	DefaultCountry = "US"
	DefaultRegion  = "TX"
	DefaultCity    = "Houston"
)

// RegionCities groups known city names under one region. Table order is
// match order: the first region whose city appears in the text wins.
type RegionCities struct {
	Country string
	Region  string
	Cities  []string
}

var cityTable = []RegionCities{
	{Country: "US", Region: "TX", Cities: []string{
		"Houston", "Dallas", "Austin", "San Antonio", "Fort Worth", "El Paso", "Arlington",
		"Plano", "Irving", "Garland", "Frisco", "McKinney", "Katy", "Sugar Land", "The Woodlands",
		"Pearland", "Cypress", "Conroe", "League City", "Baytown", "Missouri City",
		"Tomball", "Round Rock", "Georgetown",
	}},
	{Country: "US", Region: "OK", Cities: []string{"Oklahoma City", "Tulsa", "Edmond"}},
	{Country: "US", Region: "LA", Cities: []string{"New Orleans", "Baton Rouge", "Shreveport", "Lafayette"}},
	{Country: "US", Region: "FL", Cities: []string{
		"Miami", "Orlando", "Tampa", "Jacksonville", "Fort Lauderdale", "St. Petersburg",
		"Tallahassee", "Sarasota",
	}},
	{Country: "US", Region: "GA", Cities: []string{"Atlanta", "Savannah", "Augusta", "Marietta"}},
	{Country: "US", Region: "AZ", Cities: []string{"Phoenix", "Tucson", "Scottsdale", "Chandler", "Tempe"}},
	{Country: "US", Region: "CO", Cities: []string{"Denver", "Colorado Springs", "Boulder"}},
	{Country: "US", Region: "CA", Cities: []string{
		"Los Angeles", "San Diego", "San Jose", "San Francisco", "Sacramento", "Fresno",
		"Long Beach", "Oakland", "Irvine",
	}},
	{Country: "US", Region: "NY", Cities: []string{"New York", "Brooklyn", "Buffalo", "Rochester", "Albany"}},
	{Country: "US", Region: "IL", Cities: []string{"Chicago", "Naperville", "Joliet", "Springfield"}},
	{Country: "US", Region: "NC", Cities: []string{"Charlotte", "Raleigh", "Durham", "Greensboro"}},
	{Country: "US", Region: "WA", Cities: []string{"Seattle", "Spokane", "Tacoma", "Bellevue"}},
	{Country: "CA", Region: "ON", Cities: []string{
		"Toronto", "Ottawa", "Mississauga", "Brampton", "Hamilton", "Markham", "Vaughan",
		"Kitchener", "Oakville", "Burlington", "Windsor",
	}},
	{Country: "CA", Region: "BC", Cities: []string{"Vancouver", "Surrey", "Burnaby", "Kelowna"}},
	{Country: "CA", Region: "AB", Cities: []string{"Calgary", "Edmonton", "Red Deer", "Lethbridge"}},
	{Country: "CA", Region: "QC", Cities: []string{"Montreal", "Quebec City", "Laval", "Gatineau"}},
	{Country: "CA", Region: "MB", Cities: []string{"Winnipeg", "Brandon"}},
	{Country: "CA", Region: "NS", Cities: []string{"Halifax", "Dartmouth"}},
}

// regionNames maps full region names to their codes, per country.
var regionNames = map[string]map[string]string{
	"US": {
		"texas": "TX", "oklahoma": "OK", "louisiana": "LA", "florida": "FL", "georgia": "GA",
		"arizona": "AZ", "colorado": "CO", "california": "CA", "new york": "NY",
		"illinois": "IL", "north carolina": "NC", "washington": "WA",
	},
	"CA": {
		"ontario": "ON", "british columbia": "BC", "alberta": "AB", "quebec": "QC",
		"manitoba": "MB", "nova scotia": "NS", "saskatchewan": "SK", "new brunswick": "NB",
		"newfoundland and labrador": "NL", "prince edward island": "PE",
	},
}

// canadianPostalRegions maps the first letter of a Canadian postal code to its province.
var canadianPostalRegions = map[byte]string{
	'A': "NL", 'B': "NS", 'C': "PE", 'E': "NB",
	'G': "QC", 'H': "QC", 'J': "QC",
	'K': "ON", 'L': "ON", 'M': "ON", 'N': "ON", 'P': "ON",
	'R': "MB", 'S': "SK", 'T': "AB", 'V': "BC",
}

var countryAliases = map[string]string{
	"us": "US", "usa": "US", "u.s.": "US", "u.s.a.": "US", "united states": "US",
	"united states of america": "US",
	"ca": "CA", "can": "CA", "canada": "CA",
}

// Table returns a copy of the ordered city table.
func Table() []RegionCities {
	out := make([]RegionCities, len(cityTable))
	for i, rc := range cityTable {
		out[i] = RegionCities{Country: rc.Country, Region: rc.Region, Cities: append([]string(nil), rc.Cities...)}
	}
	return out
}

var usStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL", "GA", "HI", "ID", "IL", "IN", "IA",
	"KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ", "NM",
	"NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA",
	"WV", "WI", "WY",
}

var canadianProvinces = []string{"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT"}
