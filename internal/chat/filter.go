package chat

import "strings"

// DefaultBlocklist holds keywords that mark a reply as off-topic.
var DefaultBlocklist = []string{
	"foci",
	"football",
	"soccer",
	"celebrity",
	"gossip",
	"politics",
	"election",
	"horoscope",
	"lottery",
	"betting",
}

// KeywordFilter flags a reply that mentions a blocklisted keyword, or that
// never mentions a single-word topic. Matching is case-insensitive
// substring search, so it misfires on words that merely contain a keyword.
func KeywordFilter(blocklist []string) OffTopicFunc {
	keywords := make([]string, 0, len(blocklist))
	for _, k := range blocklist {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return func(topic, reply string) bool {
		lower := strings.ToLower(reply)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic != "" && !strings.ContainsAny(topic, " \t") && !strings.Contains(lower, topic) {
			return true
		}
		return false
	}
}
