package platform

import (
	"strings"
	"unicode/utf8"

	"github.com/v9cf/contentfactory/internal/models"
)

// characterLimits are the per-platform text budgets. Anything unlisted
// gets the conservative default.
var characterLimits = map[models.Platform]int{
	models.PlatformTwitter:   280,
	models.PlatformInstagram: 2200,
	models.PlatformFacebook:  63206,
	models.PlatformLinkedIn:  3000,
}

const defaultCharacterLimit = 1000

// FormatForPlatform is the shared pre-processing step: hashtags are
// normalized to start with '#' and appended as a trailing paragraph, then
// the whole text is hard-truncated to the platform budget with a trailing
// ellipsis.
func FormatForPlatform(text string, p models.Platform, hashtags []string) string {
	formatted := text

	if len(hashtags) > 0 {
		normalized := make([]string, 0, len(hashtags))
		for _, h := range hashtags {
			if h == "" {
				continue
			}
			if !strings.HasPrefix(h, "#") {
				h = "#" + h
			}
			normalized = append(normalized, h)
		}
		if len(normalized) > 0 {
			formatted = formatted + "\n\n" + strings.Join(normalized, " ")
		}
	}

	limit, ok := characterLimits[p]
	if !ok {
		limit = defaultCharacterLimit
	}

	if len(formatted) > limit {
		// Back the cut up to a rune boundary so multibyte captions
		// stay valid UTF-8.
		cut := limit - 3
		for cut > 0 && !utf8.RuneStart(formatted[cut]) {
			cut--
		}
		formatted = formatted[:cut] + "..."
	}

	return formatted
}
