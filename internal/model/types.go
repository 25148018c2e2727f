// Package model defines shared data structures.
package model

import "strings"

// Character is one of the four playable classes.
type Character int

// Playable characters in canonical order.
const (
	Ironclad Character = iota
	TheSilent
	Defect
	Watcher
)

var characters = []Character{Ironclad, TheSilent, Defect, Watcher}

// Characters returns all playable characters in canonical order.
func Characters() []Character {
	return append([]Character(nil), characters...)
}

// DirName returns the save directory name, which is also the stable identifier.
func (c Character) DirName() string {
	switch c {
	case Ironclad:
		return "IRONCLAD"
	case TheSilent:
		return "THE_SILENT"
	case Defect:
		return "DEFECT"
	case Watcher:
		return "WATCHER"
	default:
		return ""
	}
}

// DisplayName returns the presentation name.
func (c Character) DisplayName() string {
	switch c {
	case Ironclad:
		return "Ironclad"
	case TheSilent:
		return "Silent"
	case Defect:
		return "Defect"
	case Watcher:
		return "Watcher"
	default:
		return ""
	}
}

func (c Character) String() string {
	return c.DirName()
}

// LookupCharacter resolves an identifier case-insensitively.
func LookupCharacter(id string) (Character, bool) {
	id = strings.TrimSpace(id)
	for _, c := range characters {
		if strings.EqualFold(c.DirName(), id) {
			return c, true
		}
	}
	return 0, false
}

// CharacterIDs lists the canonical identifiers.
func CharacterIDs() []string {
	ids := make([]string, len(characters))
	for i, c := range characters {
		ids[i] = c.DirName()
	}
	return ids
}

// CharacterInfo is the serialized form of a Character.
type CharacterInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RunMetrics captures one run parsed from a save file.
type RunMetrics struct {
	PlayID         string `json:"play_id"`
	Character      string `json:"character"`
	FloorReached   int    `json:"floor_reached"`
	Victory        bool   `json:"victory"`
	Score          int    `json:"score"`
	AscensionLevel int    `json:"ascension_level"`

	DeckSize      int `json:"deck_size"`
	AttackCount   int `json:"attack_count"`
	SkillCount    int `json:"skill_count"`
	PowerCount    int `json:"power_count"`
	UpgradedCards int `json:"upgraded_cards"`
	CardsRemoved  int `json:"cards_removed"`

	RelicCount        int      `json:"relic_count"`
	Relics            []string `json:"relics"`
	MasterDeck        []string `json:"master_deck"`
	ElitesKilled      int      `json:"elites_killed"`
	BossesKilled      int      `json:"bosses_killed"`
	CampfiresRested   int      `json:"campfires_rested"`
	CampfiresUpgraded int      `json:"campfires_upgraded"`
	ShopsVisited      int      `json:"shops_visited"`
	CardsPurchased    int      `json:"cards_purchased"`
	PotionsUsed       int      `json:"potions_used"`

	TotalDamageTaken int `json:"total_damage_taken"`
	MaxHPAtEnd       int `json:"max_hp_at_end"`

	// KilledBy is nil on victory or when the save omits it.
	KilledBy *string `json:"killed_by"`
}

// CharacterStats aggregates runs for one character.
type CharacterStats struct {
	Character   string  `json:"character"`
	DisplayName string  `json:"display_name"`
	TotalRuns   int     `json:"total_runs"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	AvgScore    float64 `json:"avg_score"`
	AvgFloor    float64 `json:"avg_floor"`
	MaxFloor    int     `json:"max_floor"`
	AvgDeckSize float64 `json:"avg_deck_size"`
	AvgRelics   float64 `json:"avg_relics"`
}

// ExportData is a point-in-time snapshot of runs and stats.
type ExportData struct {
	Runs            []RunMetrics     `json:"runs"`
	CharacterStats  []CharacterStats `json:"character_stats"`
	ExportTimestamp int64            `json:"export_timestamp"`
}

// RunFilter narrows a run listing. Zero value matches everything.
type RunFilter struct {
	Character     string
	VictoriesOnly bool
	MinAscension  *int
}

// Match reports whether the run passes the filter.
func (f RunFilter) Match(r RunMetrics) bool {
	if f.Character != "" && !strings.EqualFold(r.Character, f.Character) {
		return false
	}
	if f.VictoriesOnly && !r.Victory {
		return false
	}
	if f.MinAscension != nil && r.AscensionLevel < *f.MinAscension {
		return false
	}
	return true
}

// PathInfo reports the runs directory configuration.
type PathInfo struct {
	CurrentPath      *string `json:"current_path"`
	IsCustom         bool    `json:"is_custom"`
	AutoDetectedPath *string `json:"auto_detected_path"`
	PathExists       bool    `json:"path_exists"`
}

// SnapshotStats is one recorded per-character row from the history store.
type SnapshotStats struct {
	SnapshotID int64
	RecordedAt int64
	RunCount   int
	Stats      CharacterStats
}
