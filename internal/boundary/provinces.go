package boundary

import "strings"

// provinceByPrefix maps the leading digits of a PSGC administrative code to
// the display province name. Codes carried by boundary features are full
// city/municipality codes; the province is identified by the code prefix.
// Coverage follows the deployment's regional scope: Metro Manila and the
// provinces crossed by the West Valley Fault corridor.
var provinceByPrefix = map[string]string{
	"1374": "Metro Manila",
	"1375": "Metro Manila",
	"1376": "Metro Manila",
	"0314": "Bulacan",
	"0349": "Pampanga",
	"0421": "Cavite",
	"0434": "Laguna",
	"0410": "Batangas",
	"0456": "Quezon",
	"0458": "Rizal",
}

// ProvinceForCode returns the display province for an administrative code.
// The full code is tried first, then its four-digit province prefix. Unknown
// or empty codes map to Unknown.
func ProvinceForCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Unknown
	}
	if p, ok := provinceByPrefix[code]; ok {
		return p
	}
	if len(code) >= 4 {
		if p, ok := provinceByPrefix[code[:4]]; ok {
			return p
		}
	}
	return Unknown
}
