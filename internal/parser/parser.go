// Package parser converts run save files into RunMetrics.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/spirestats/internal/cards"
	"github.com/verte-zerg/spirestats/internal/model"
)

// RunExt is the extension of run save files.
const RunExt = ".run"

// DefaultMaxHP is used when a run has no per-floor HP history.
const DefaultMaxHP = 72

const (
	pathElite = "E"
	pathBoss  = "BOSS"
	pathShop  = "$"

	campfireRest  = "REST"
	campfireSmith = "SMITH"
)

// ErrMalformed is returned when a run file is not a valid run document.
var ErrMalformed = errors.New("malformed run file")

// object holds one decoded JSON object. Keys match exactly, unlike
// encoding/json struct decoding, which folds case.
type object map[string]json.RawMessage

func decodeObject(data []byte) (object, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("expected an object, got null")
	}
	return obj, nil
}

// field decodes key into dst. A missing key or a null value leaves dst unset.
func field[T any](obj object, key string, dst *T) error {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// stringList decodes a list whose elements must all be strings.
func stringList(obj object, key string) ([]string, error) {
	var items []*string
	if err := field(obj, key, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%s[%d]: expected a string, got null", key, i)
		}
		out = append(out, *item)
	}
	return out, nil
}

// objectList decodes a list whose elements must all be objects.
func objectList(obj object, key string) ([]object, error) {
	var items []json.RawMessage
	if err := field(obj, key, &items); err != nil {
		return nil, err
	}
	out := make([]object, 0, len(items))
	for i, item := range items {
		el, err := decodeObject(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, el)
	}
	return out, nil
}

type rawRun struct {
	playID          *string
	floorReached    wholeNumber
	victory         *bool
	score           wholeNumber
	ascensionLevel  wholeNumber
	masterDeck      []string
	relics          []string
	campfireChoices []*string
	pathPerFloor    []*string
	itemsPurged     []string
	itemsPurchased  []string
	potionsUsed     []json.RawMessage
	damageTaken     []wholeNumber
	maxHPPerFloor   []json.RawMessage
	killedBy        *string
}

func decodeRun(data []byte) (rawRun, error) {
	var r rawRun
	obj, err := decodeObject(data)
	if err != nil {
		return r, err
	}
	for _, err := range []error{
		field(obj, "play_id", &r.playID),
		field(obj, "floor_reached", &r.floorReached),
		field(obj, "victory", &r.victory),
		field(obj, "score", &r.score),
		field(obj, "ascension_level", &r.ascensionLevel),
		field(obj, "path_per_floor", &r.pathPerFloor),
		field(obj, "potions_floor_usage", &r.potionsUsed),
		field(obj, "max_hp_per_floor", &r.maxHPPerFloor),
		field(obj, "killed_by", &r.killedBy),
	} {
		if err != nil {
			return r, err
		}
	}
	lists := []struct {
		key string
		dst *[]string
	}{
		{"master_deck", &r.masterDeck},
		{"relics", &r.relics},
		{"items_purged", &r.itemsPurged},
		{"items_purchased", &r.itemsPurchased},
	}
	for _, l := range lists {
		if *l.dst, err = stringList(obj, l.key); err != nil {
			return r, err
		}
	}

	choices, err := objectList(obj, "campfire_choices")
	if err != nil {
		return r, err
	}
	for i, c := range choices {
		var key *string
		if err := field(c, "key", &key); err != nil {
			return r, fmt.Errorf("campfire_choices[%d].%w", i, err)
		}
		r.campfireChoices = append(r.campfireChoices, key)
	}

	events, err := objectList(obj, "damage_taken")
	if err != nil {
		return r, err
	}
	for i, e := range events {
		var damage wholeNumber
		if err := field(e, "damage", &damage); err != nil {
			return r, fmt.Errorf("damage_taken[%d].%w", i, err)
		}
		r.damageTaken = append(r.damageTaken, damage)
	}
	return r, nil
}

// ParseFile reads and parses one run file. The run identifier falls back to
// the file name without extension.
func ParseFile(path, character string) (model.RunMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RunMetrics{}, fmt.Errorf("failed to read run file: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, stem, character)
}

// Parse converts a run document into RunMetrics. Missing fields take defaults.
// Keys are matched case-sensitively and unknown keys are ignored.
func Parse(data []byte, fallbackID, character string) (model.RunMetrics, error) {
	raw, err := decodeRun(data)
	if err != nil {
		return model.RunMetrics{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	counts := cards.Count(raw.masterDeck)

	m := model.RunMetrics{
		PlayID:         fallbackID,
		Character:      character,
		FloorReached:   raw.floorReached.or(0),
		Score:          raw.score.or(0),
		AscensionLevel: raw.ascensionLevel.or(0),

		DeckSize:      len(raw.masterDeck),
		AttackCount:   counts.Attack,
		SkillCount:    counts.Skill,
		PowerCount:    counts.Power,
		UpgradedCards: counts.Upgraded,
		CardsRemoved:  len(raw.itemsPurged),

		RelicCount:        len(raw.relics),
		Relics:            raw.relics,
		MasterDeck:        raw.masterDeck,
		ElitesKilled:      countMatches(raw.pathPerFloor, pathElite),
		BossesKilled:      countMatches(raw.pathPerFloor, pathBoss),
		CampfiresRested:   countMatches(raw.campfireChoices, campfireRest),
		CampfiresUpgraded: countMatches(raw.campfireChoices, campfireSmith),
		ShopsVisited:      countMatches(raw.pathPerFloor, pathShop),
		CardsPurchased:    len(raw.itemsPurchased),
		PotionsUsed:       len(raw.potionsUsed),

		TotalDamageTaken: sumDamage(raw.damageTaken),
		MaxHPAtEnd:       lastHP(raw.maxHPPerFloor),
		KilledBy:         raw.killedBy,
	}
	if raw.playID != nil {
		m.PlayID = *raw.playID
	}
	if raw.victory != nil {
		m.Victory = *raw.victory
	}
	return m, nil
}

func countMatches(values []*string, token string) int {
	n := 0
	for _, v := range values {
		if v != nil && *v == token {
			n++
		}
	}
	return n
}

func sumDamage(events []wholeNumber) int {
	total := 0
	for _, e := range events {
		total += e.or(0)
	}
	return total
}

func lastHP(values []json.RawMessage) int {
	if len(values) == 0 {
		return DefaultMaxHP
	}
	if v, ok := decodeWhole(values[len(values)-1]); ok {
		return v
	}
	return DefaultMaxHP
}
