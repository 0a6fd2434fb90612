package resource

import (
	"regexp"
	"strings"
)

var (
	firstCap = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	endCap   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// FieldName converts an external PascalCase payload key into the internal
// snake_case identifier: "VpcId" -> "vpc_id", "DHCPOptionsId" -> "dhcp_options_id".
// Keys that already contain an underscore are returned lower-cased.
func FieldName(key string) string {
	if strings.Contains(key, "_") {
		return strings.ToLower(key)
	}
	s := firstCap.ReplaceAllString(key, "${1}_${2}")
	s = endCap.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}
