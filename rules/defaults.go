package rules

import "progresskit/core"

// atLeast builds a threshold condition over a single named statistic.
func atLeast(stat string, n int64) Condition {
	return func(c core.TriggerContext) bool { return c.Get(stat) >= n }
}

// Default returns the built-in catalog used by the reporting application.
func Default() *Catalog {
	c := NewCatalog()
	c.MustRegister(Rule{
		Slug:        "first_comment",
		Trigger:     core.TriggerComment,
		Condition:   atLeast(core.StatTotalComments, 1),
		Label:       "First Words",
		Description: "Post your first comment",
		Icon:        "💬",
	})
	c.MustRegister(Rule{
		Slug:        "conversation_starter",
		Trigger:     core.TriggerComment,
		Condition:   atLeast(core.StatTotalComments, 5),
		Label:       "Conversation Starter",
		Description: "Post 5 comments",
		Icon:        "🗣️",
	})
	c.MustRegister(Rule{
		Slug:        "discussion_veteran",
		Trigger:     core.TriggerComment,
		Condition:   atLeast(core.StatTotalComments, 50),
		Label:       "Discussion Veteran",
		Description: "Post 50 comments",
		Icon:        "🎙️",
	})
	c.MustRegister(Rule{
		Slug:        "weekly_voice",
		Trigger:     core.TriggerComment,
		Condition:   atLeast(core.StatCommentStreakDays, 7),
		Label:       "Weekly Voice",
		Description: "Comment 7 days in a row",
		Icon:        "🔥",
	})
	c.MustRegister(Rule{
		Slug:        "first_report",
		Trigger:     core.TriggerReport,
		Condition:   atLeast(core.StatTotalReports, 1),
		Label:       "Breaking News",
		Description: "File your first report",
		Icon:        "📝",
	})
	c.MustRegister(Rule{
		Slug:        "seasoned_reporter",
		Trigger:     core.TriggerReport,
		Condition:   atLeast(core.StatTotalReports, 10),
		Label:       "Seasoned Reporter",
		Description: "File 10 reports",
		Icon:        "🗞️",
	})
	c.MustRegister(Rule{
		Slug:        "report_marathon",
		Trigger:     core.TriggerReport,
		Condition:   atLeast(core.StatReportStreakDays, 30),
		Label:       "Report Marathon",
		Description: "Report 30 days in a row",
		Icon:        "🏃",
	})
	return c
}
