// FILE: util.go
// Package main – Small formatting helpers shared by the executor and client.
package main

import (
	"strconv"
	"strings"
)

func trimTrailingZeros(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func parseFloatStrict(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
