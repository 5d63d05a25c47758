package sfx

import (
	"regexp"
	"strings"
)

// Rule maps a keyword pattern to a canned sound-effect search phrase.
type Rule struct {
	Pattern *regexp.Regexp
	Query   string
}

// QueryTable is an ordered, immutable list of rules. The first matching rule
// wins, so broader patterns belong later in the list.
type QueryTable struct {
	rules    []Rule
	fallback string
}

// FallbackQuery is returned when no rule matches the scene text.
const FallbackQuery = "cinematic whoosh"

// NewQueryTable builds a table from the given rules. The slice is copied so
// callers cannot mutate the table afterwards.
func NewQueryTable(rules []Rule, fallback string) QueryTable {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return QueryTable{rules: cp, fallback: fallback}
}

// DefaultTable covers the usual dramatic beats of prose: weather, water,
// fire, combat, movement and ambience.
func DefaultTable() QueryTable {
	return NewQueryTable([]Rule{
		{regexp.MustCompile(`thunder|storm|lightning`), "thunder"},
		{regexp.MustCompile(`rain|downpour|drizzle`), "rain"},
		{regexp.MustCompile(`wind|gust|howl`), "wind"},
		{regexp.MustCompile(`ocean|waves|sea|beach`), "ocean waves"},
		{regexp.MustCompile(`river|stream|brook`), "running water"},
		{regexp.MustCompile(`forest|woods|leaves|birds`), "forest ambience"},
		{regexp.MustCompile(`fire|flames|campfire`), "fire crackle"},
		{regexp.MustCompile(`sword|clash|battle|fight`), "sword clash"},
		{regexp.MustCompile(`footsteps|walk|run|sneak`), "footsteps"},
		{regexp.MustCompile(`door|knock|creak`), "door creak"},
		{regexp.MustCompile(`car|engine|drive`), "car engine"},
		{regexp.MustCompile(`city|street|traffic`), "city ambience"},
		{regexp.MustCompile(`crowd|applause|cheer`), "applause"},
		{regexp.MustCompile(`monster|roar|dragon`), "monster roar"},
		{regexp.MustCompile(`magic|spell|sparkle|wand`), "magical shimmer"},
	}, FallbackQuery)
}

// Len reports how many rules the table holds.
func (t QueryTable) Len() int {
	return len(t.rules)
}

// PickQuery tests the scene text against each rule in order, case
// insensitively, and returns the first match's search phrase. No match
// yields the table's generic fallback.
func (t QueryTable) PickQuery(sceneText string) string {
	lower := strings.ToLower(sceneText)
	for _, r := range t.rules {
		if r.Pattern.MatchString(lower) {
			return r.Query
		}
	}
	return t.fallback
}
