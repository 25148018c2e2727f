// Package cards classifies deck cards by keyword.
package cards

import "strings"

var attackKeywords = []string{
	"strike", "bash", "anger", "cleave", "carnage", "eruption", "flying",
	"tantrum", "ragnarok", "conclude", "claw", "beam", "core", "doom",
	"electro", "ftl", "hyperbeam", "meteor", "rip", "sunder", "bludgeon",
	"sword", "shiv", "dagger", "slice", "neutralize", "riddle", "skewer",
	"grand finale", "glass knife", "backstab", "predator", "all-out",
	"ball lightning", "cold snap", "compile", "barrage", "blizzard",
}

var skillKeywords = []string{
	"defend", "armament", "shrug", "true grit", "vigilance", "protect",
	"survivor", "dodge", "blur", "footwork", "charge", "coolhead", "glacier",
	"leap", "stack", "turbo", "entrench", "impervious",
}

// Category is a card bucket.
type Category int

// Card categories.
const (
	Attack Category = iota
	Skill
	Power
)

func (c Category) String() string {
	switch c {
	case Attack:
		return "attack"
	case Skill:
		return "skill"
	default:
		return "power"
	}
}

// Classify returns a single bucket for name. Names matching both lists
// report Attack here; Count checks the two lists independently.
func Classify(name string) Category {
	switch {
	case IsAttack(name):
		return Attack
	case IsSkill(name):
		return Skill
	default:
		return Power
	}
}

// IsAttack reports whether the card name matches an attack keyword.
func IsAttack(name string) bool {
	return containsAny(strings.ToLower(name), attackKeywords)
}

// IsSkill reports whether the card name matches a skill keyword.
func IsSkill(name string) bool {
	return containsAny(strings.ToLower(name), skillKeywords)
}

// IsUpgraded reports whether the card carries the upgrade marker.
func IsUpgraded(name string) bool {
	return strings.Contains(name, "+")
}

// Counts tallies card categories across a deck.
type Counts struct {
	Attack   int
	Skill    int
	Power    int
	Upgraded int
}

// Count classifies every card in deck. A card matching both keyword lists
// counts as attack and skill; Power is the remainder and may go negative.
func Count(deck []string) Counts {
	var c Counts
	for _, card := range deck {
		if IsAttack(card) {
			c.Attack++
		}
		if IsSkill(card) {
			c.Skill++
		}
		if IsUpgraded(card) {
			c.Upgraded++
		}
	}
	c.Power = len(deck) - c.Attack - c.Skill
	return c
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
