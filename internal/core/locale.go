package core

import "golang.org/x/text/language"

// Locale carries the user-facing defaults that depend on the display language.
type Locale struct {
	Tag             language.Tag
	UnknownActivity string
	SeedActivities  []Activity
}

var (
	English = Locale{
		Tag:             language.English,
		UnknownActivity: "unknown",
		SeedActivities: []Activity{
			{ID: "1", Name: "cleaning", HourlyWage: 1000, Active: true, SortOrder: 1},
			{ID: "2", Name: "shopping", HourlyWage: 1200, Active: true, SortOrder: 2},
			{ID: "3", Name: "childcare", HourlyWage: 1500, Active: true, SortOrder: 3},
		},
	}
	Japanese = Locale{
		Tag:             language.Japanese,
		UnknownActivity: "不明",
		SeedActivities: []Activity{
			{ID: "1", Name: "掃除", HourlyWage: 1000, Active: true, SortOrder: 1},
			{ID: "2", Name: "買い物", HourlyWage: 1200, Active: true, SortOrder: 2},
			{ID: "3", Name: "子守", HourlyWage: 1500, Active: true, SortOrder: 3},
		},
	}
)

// LocaleFor matches a BCP 47 string against the supported locales, defaulting to English.
func LocaleFor(s string) Locale {
	tag, err := language.Parse(s)
	if err != nil {
		return English
	}
	matcher := language.NewMatcher([]language.Tag{language.English, language.Japanese})
	_, idx, _ := matcher.Match(tag)
	if idx == 1 {
		return Japanese
	}
	return English
}

// Seeds returns a fresh copy of the seed activities.
func (l Locale) Seeds() []Activity {
	return append([]Activity(nil), l.SeedActivities...)
}
