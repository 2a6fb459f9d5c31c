package stats

// XP rules.
const (
	XPPerLevel   = 100
	DailyVisitXP = 5
	DailyGoalXP  = 100
)

// Badge is an achievement derived from focused minutes.
type Badge struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	Earned      bool   `json:"earned" yaml:"earned"`
}

type badgeRule struct {
	id, label, description string
	today                  bool
	minutes                int
}

var badgeRules = []badgeRule{
	{id: "first-steps", label: "First steps", description: "Finish your first focus session", minutes: 1},
	{id: "focus-25", label: "Deep focus", description: "Reach 25 focused minutes", minutes: 25},
	{id: "one-hour", label: "One hour", description: "Reach 60 focused minutes", minutes: 60},
	{id: "marathon", label: "Marathon", description: "Reach 300 focused minutes", minutes: 300},
	{id: "legend", label: "Legend", description: "Reach 1000 focused minutes", minutes: 1000},
	{id: "today-focus", label: "Focused today", description: "Focus 25 minutes today", minutes: 25, today: true},
}

// Progress holds the gamification numbers.
type Progress struct {
	StudyXPToday  int     `json:"studyXpToday" yaml:"study_xp_today"`
	VisitXP       int     `json:"visitXp" yaml:"visit_xp"`
	TodayXP       int     `json:"todayXp" yaml:"today_xp"`
	LifetimeXP    int     `json:"lifetimeXp" yaml:"lifetime_xp"`
	Level         int     `json:"level" yaml:"level"`
	XPIntoLevel   int     `json:"xpIntoLevel" yaml:"xp_into_level"`
	XPToNextLevel int     `json:"xpToNextLevel" yaml:"xp_to_next_level"`
	DailyGoal     float64 `json:"dailyGoal" yaml:"daily_goal"`
	Avatar        string  `json:"avatar" yaml:"avatar"`
	Badges        []Badge `json:"badges" yaml:"badges"`
}

// ComputeProgress derives XP, level and badges from minute totals.
func ComputeProgress(lifetimeMinutes, todayMinutes int) Progress {
	lifetimeXP := lifetimeMinutes + DailyVisitXP
	into := lifetimeXP % XPPerLevel
	todayXP := todayMinutes + DailyVisitXP
	goal := float64(todayXP) / DailyGoalXP
	if goal > 1 {
		goal = 1
	}
	p := Progress{
		StudyXPToday:  todayMinutes,
		VisitXP:       DailyVisitXP,
		TodayXP:       todayXP,
		LifetimeXP:    lifetimeXP,
		Level:         lifetimeXP/XPPerLevel + 1,
		XPIntoLevel:   into,
		XPToNextLevel: XPPerLevel - into,
		DailyGoal:     goal,
	}
	p.Avatar = AvatarTier(p.Level)
	p.Badges = make([]Badge, 0, len(badgeRules))
	for _, rule := range badgeRules {
		minutes := lifetimeMinutes
		if rule.today {
			minutes = todayMinutes
		}
		p.Badges = append(p.Badges, Badge{
			ID:          rule.id,
			Label:       rule.label,
			Description: rule.description,
			Earned:      minutes >= rule.minutes,
		})
	}
	return p
}

// AvatarTier names the profile frame for a level.
func AvatarTier(level int) string {
	switch {
	case level >= 20:
		return "diamond"
	case level >= 10:
		return "gold"
	case level >= 5:
		return "silver"
	default:
		return "bronze"
	}
}

// EarnedCount returns how many badges are earned.
func (p Progress) EarnedCount() int {
	n := 0
	for _, b := range p.Badges {
		if b.Earned {
			n++
		}
	}
	return n
}
