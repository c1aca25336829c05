package utils

import (
	"regexp"
	"strings"
	"time"
)

var nonSlugChars = regexp.MustCompile("[^a-z0-9]+")

func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExportFileName builds a timestamped download name such as "daily-sales_20240101_120000.csv"
func ExportFileName(name string, at time.Time, ext string) string {
	slug := Slugify(name)
	if slug == "" {
		slug = "report"
	}
	return slug + "_" + at.Format("20060102_150405") + "." + ext
}
