package social

// platformInfo carries one platform's caption constraints. Limits follow
// each network's published maximums; a hashtag limit of zero means the
// platform's culture skips hashtags entirely.
type platformInfo struct {
	Name         string
	MaxChars     int
	HashtagLimit int
}

var platformRegistry = map[string]platformInfo{
	"facebook":  {Name: "Facebook", MaxChars: 63206, HashtagLimit: 30},
	"instagram": {Name: "Instagram", MaxChars: 2200, HashtagLimit: 30},
	"tiktok":    {Name: "TikTok", MaxChars: 300, HashtagLimit: 100},
	"reddit":    {Name: "Reddit", MaxChars: 40000, HashtagLimit: 0},
	"x":         {Name: "X (Twitter)", MaxChars: 280, HashtagLimit: 10},
	"youtube":   {Name: "YouTube", MaxChars: 5000, HashtagLimit: 15},
}

func KnownPlatform(platform string) bool {
	_, ok := platformRegistry[platform]
	return ok
}

// CharLimit returns the platform's caption limit, defaulting to the
// strictest one for anything unknown.
func CharLimit(platform string) int {
	if info, ok := platformRegistry[platform]; ok {
		return info.MaxChars
	}
	return 280
}
