package container

import (
	"strings"

	"golang.org/x/text/language"
)

const undetermined = "und"

// normalizeISO converts a language tag to its two-letter ISO 639-1 form when
// one exists. "und" and empty become "". Unparseable codes pass through.
func normalizeISO(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, undetermined) {
		return ""
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return code
	}
	if s := base.String(); s != undetermined {
		return s
	}
	return code
}

// passThrough only collapses "und"; the asset adapter reports codes as the
// container stores them.
func passThrough(code string) string {
	if code == undetermined {
		return ""
	}
	return code
}
