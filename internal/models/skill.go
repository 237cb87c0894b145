package models

// SkillLevel is the proficiency rating for one category.
type SkillLevel string

const (
	SkillNeedsSupport SkillLevel = "needs_support"
	SkillOnTrack      SkillLevel = "on_track"
	SkillStrong       SkillLevel = "strong"
	SkillUnknown      SkillLevel = "unknown"
)

// NormalizeSkillLevel maps a raw level string to a SkillLevel, defaulting to
// Unknown for anything unrecognized.
func NormalizeSkillLevel(raw string) SkillLevel {
	switch SkillLevel(raw) {
	case SkillNeedsSupport, SkillOnTrack, SkillStrong:
		return SkillLevel(raw)
	default:
		return SkillUnknown
	}
}

// SkillProfile maps a category name to the subject's proficiency in it.
type SkillProfile map[string]SkillLevel

// Level returns the proficiency for a category, Unknown if absent. Profiles
// come back from checkpoint documents, so the stored value is normalized the
// same way a raw external string would be.
func (p SkillProfile) Level(category string) SkillLevel {
	if lvl, ok := p[category]; ok {
		return NormalizeSkillLevel(string(lvl))
	}
	return SkillUnknown
}
