package models

// Platform identifies a social network a post can be dispatched to.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTiktok    Platform = "tiktok"
	PlatformYoutube   Platform = "youtube"
	PlatformThreads   Platform = "threads"
)

// KnownPlatform reports whether p is a recognized platform value. Whether
// a publishing adapter exists for it is a separate question answered by
// the adapter registry at dispatch time.
func KnownPlatform(p Platform) bool {
	switch p {
	case PlatformTwitter, PlatformInstagram, PlatformFacebook,
		PlatformLinkedIn, PlatformTiktok, PlatformYoutube, PlatformThreads:
		return true
	}
	return false
}
