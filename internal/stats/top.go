package stats

import "sort"

// TopTopics returns up to n topics ordered by focused seconds.
func TopTopics(topics []TopicStat, n int) []TopicStat {
	if n <= 0 || len(topics) == 0 {
		return nil
	}
	items := append([]TopicStat(nil), topics...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Seconds == items[j].Seconds {
			return items[i].Topic < items[j].Topic
		}
		return items[i].Seconds > items[j].Seconds
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
