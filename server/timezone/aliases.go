package timezone

import "strings"

// The alias vocabulary maps country names, ISO country codes, flag glyphs,
// common abbreviations and international dialing codes to canonical IANA
// zone names. For countries spanning several zones the most populous one is
// used; users who need a different zone can always name it directly.

var countryZones = map[string]string{
	"united states":  "America/New_York",
	"usa":            "America/New_York",
	"america":        "America/New_York",
	"canada":         "America/Toronto",
	"mexico":         "America/Mexico_City",
	"brazil":         "America/Sao_Paulo",
	"argentina":      "America/Argentina/Buenos_Aires",
	"chile":          "America/Santiago",
	"colombia":       "America/Bogota",
	"peru":           "America/Lima",
	"bolivia":        "America/La_Paz",
	"venezuela":      "America/Caracas",
	"united kingdom": "Europe/London",
	"uk":             "Europe/London",
	"england":        "Europe/London",
	"ireland":        "Europe/Dublin",
	"france":         "Europe/Paris",
	"germany":        "Europe/Berlin",
	"spain":          "Europe/Madrid",
	"italy":          "Europe/Rome",
	"netherlands":    "Europe/Amsterdam",
	"belgium":        "Europe/Brussels",
	"switzerland":    "Europe/Zurich",
	"austria":        "Europe/Vienna",
	"poland":         "Europe/Warsaw",
	"portugal":       "Europe/Lisbon",
	"sweden":         "Europe/Stockholm",
	"norway":         "Europe/Oslo",
	"denmark":        "Europe/Copenhagen",
	"finland":        "Europe/Helsinki",
	"greece":         "Europe/Athens",
	"turkey":         "Europe/Istanbul",
	"ukraine":        "Europe/Kyiv",
	"russia":         "Europe/Moscow",
	"india":          "Asia/Kolkata",
	"china":          "Asia/Shanghai",
	"japan":          "Asia/Tokyo",
	"south korea":    "Asia/Seoul",
	"korea":          "Asia/Seoul",
	"vietnam":        "Asia/Ho_Chi_Minh",
	"thailand":       "Asia/Bangkok",
	"indonesia":      "Asia/Jakarta",
	"philippines":    "Asia/Manila",
	"malaysia":       "Asia/Kuala_Lumpur",
	"singapore":      "Asia/Singapore",
	"pakistan":       "Asia/Karachi",
	"bangladesh":     "Asia/Dhaka",
	"iran":           "Asia/Tehran",
	"israel":         "Asia/Jerusalem",
	"saudi arabia":   "Asia/Riyadh",
	"uae":            "Asia/Dubai",
	"egypt":          "Africa/Cairo",
	"nigeria":        "Africa/Lagos",
	"kenya":          "Africa/Nairobi",
	"south africa":   "Africa/Johannesburg",
	"morocco":        "Africa/Casablanca",
	"australia":      "Australia/Sydney",
	"new zealand":    "Pacific/Auckland",
}

// isoZones maps ISO 3166-1 alpha-2 codes to zones. Flag glyph aliases are
// derived from these at init.
var isoZones = map[string]string{
	"us": "America/New_York",
	"ca": "America/Toronto",
	"mx": "America/Mexico_City",
	"br": "America/Sao_Paulo",
	"ar": "America/Argentina/Buenos_Aires",
	"cl": "America/Santiago",
	"co": "America/Bogota",
	"pe": "America/Lima",
	"bo": "America/La_Paz",
	"ve": "America/Caracas",
	"gb": "Europe/London",
	"ie": "Europe/Dublin",
	"fr": "Europe/Paris",
	"de": "Europe/Berlin",
	"es": "Europe/Madrid",
	"it": "Europe/Rome",
	"nl": "Europe/Amsterdam",
	"be": "Europe/Brussels",
	"ch": "Europe/Zurich",
	"at": "Europe/Vienna",
	"pl": "Europe/Warsaw",
	"pt": "Europe/Lisbon",
	"se": "Europe/Stockholm",
	"no": "Europe/Oslo",
	"dk": "Europe/Copenhagen",
	"fi": "Europe/Helsinki",
	"gr": "Europe/Athens",
	"tr": "Europe/Istanbul",
	"ua": "Europe/Kyiv",
	"ru": "Europe/Moscow",
	"in": "Asia/Kolkata",
	"cn": "Asia/Shanghai",
	"jp": "Asia/Tokyo",
	"kr": "Asia/Seoul",
	"vn": "Asia/Ho_Chi_Minh",
	"th": "Asia/Bangkok",
	"id": "Asia/Jakarta",
	"ph": "Asia/Manila",
	"my": "Asia/Kuala_Lumpur",
	"sg": "Asia/Singapore",
	"pk": "Asia/Karachi",
	"bd": "Asia/Dhaka",
	"ir": "Asia/Tehran",
	"il": "Asia/Jerusalem",
	"sa": "Asia/Riyadh",
	"ae": "Asia/Dubai",
	"eg": "Africa/Cairo",
	"ng": "Africa/Lagos",
	"ke": "Africa/Nairobi",
	"za": "Africa/Johannesburg",
	"ma": "Africa/Casablanca",
	"au": "Australia/Sydney",
	"nz": "Pacific/Auckland",
}

var abbreviationZones = map[string]string{
	"est":  "America/New_York",
	"edt":  "America/New_York",
	"cst":  "America/Chicago",
	"cdt":  "America/Chicago",
	"mst":  "America/Denver",
	"mdt":  "America/Denver",
	"pst":  "America/Los_Angeles",
	"pdt":  "America/Los_Angeles",
	"akst": "America/Anchorage",
	"hst":  "Pacific/Honolulu",
	"brt":  "America/Sao_Paulo",
	"gmt":  "Europe/London",
	"bst":  "Europe/London",
	"wet":  "Europe/Lisbon",
	"cet":  "Europe/Paris",
	"cest": "Europe/Paris",
	"eet":  "Europe/Athens",
	"eest": "Europe/Athens",
	"msk":  "Europe/Moscow",
	"trt":  "Europe/Istanbul",
	"ist":  "Asia/Kolkata",
	"pkt":  "Asia/Karachi",
	"ict":  "Asia/Bangkok",
	"wib":  "Asia/Jakarta",
	"sgt":  "Asia/Singapore",
	"hkt":  "Asia/Hong_Kong",
	"jst":  "Asia/Tokyo",
	"kst":  "Asia/Seoul",
	"pht":  "Asia/Manila",
	"gst":  "Asia/Dubai",
	"sast": "Africa/Johannesburg",
	"eat":  "Africa/Nairobi",
	"wat":  "Africa/Lagos",
	"awst": "Australia/Perth",
	"acst": "Australia/Adelaide",
	"aest": "Australia/Sydney",
	"aedt": "Australia/Sydney",
	"nzst": "Pacific/Auckland",
	"nzdt": "Pacific/Auckland",
}

var dialingZones = map[string]string{
	"+1":   "America/New_York",
	"+7":   "Europe/Moscow",
	"+20":  "Africa/Cairo",
	"+27":  "Africa/Johannesburg",
	"+30":  "Europe/Athens",
	"+31":  "Europe/Amsterdam",
	"+32":  "Europe/Brussels",
	"+33":  "Europe/Paris",
	"+34":  "Europe/Madrid",
	"+39":  "Europe/Rome",
	"+41":  "Europe/Zurich",
	"+43":  "Europe/Vienna",
	"+44":  "Europe/London",
	"+45":  "Europe/Copenhagen",
	"+46":  "Europe/Stockholm",
	"+47":  "Europe/Oslo",
	"+48":  "Europe/Warsaw",
	"+49":  "Europe/Berlin",
	"+51":  "America/Lima",
	"+52":  "America/Mexico_City",
	"+54":  "America/Argentina/Buenos_Aires",
	"+55":  "America/Sao_Paulo",
	"+56":  "America/Santiago",
	"+57":  "America/Bogota",
	"+58":  "America/Caracas",
	"+61":  "Australia/Sydney",
	"+62":  "Asia/Jakarta",
	"+63":  "Asia/Manila",
	"+64":  "Pacific/Auckland",
	"+65":  "Asia/Singapore",
	"+66":  "Asia/Bangkok",
	"+81":  "Asia/Tokyo",
	"+82":  "Asia/Seoul",
	"+84":  "Asia/Ho_Chi_Minh",
	"+86":  "Asia/Shanghai",
	"+90":  "Europe/Istanbul",
	"+91":  "Asia/Kolkata",
	"+92":  "Asia/Karachi",
	"+234": "Africa/Lagos",
	"+254": "Africa/Nairobi",
	"+351": "Europe/Lisbon",
	"+353": "Europe/Dublin",
	"+358": "Europe/Helsinki",
	"+380": "Europe/Kyiv",
	"+591": "America/La_Paz",
	"+971": "Asia/Dubai",
	"+972": "Asia/Jerusalem",
}

// aliases is the merged lookup table. Keys are lowercase except flag glyphs
// and dialing codes, which are matched verbatim.
var aliases = map[string]string{}

// flagGlyph converts an ISO alpha-2 code to its regional indicator pair.
func flagGlyph(iso string) string {
	var b strings.Builder
	for _, c := range iso {
		b.WriteRune(0x1F1E6 + (c - 'a'))
	}
	return b.String()
}

func init() {
	for k, v := range countryZones {
		aliases[k] = v
	}
	for k, v := range isoZones {
		aliases[k] = v
		aliases[flagGlyph(k)] = v
	}
	for k, v := range abbreviationZones {
		aliases[k] = v
	}
	for k, v := range dialingZones {
		aliases[k] = v
	}
}
