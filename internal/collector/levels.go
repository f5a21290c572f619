package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Cumulative XP needed for each skill level. Skills without their own table
// use the standard one.
var skillTables = map[string][]float64{
	"standard": {
		50, 175, 375, 675, 1175, 1925, 2925, 4425, 6425, 9925, 14925, 22425,
		32425, 47425, 67425, 97425, 147425, 222425, 322425, 522425, 822425,
		1222425, 1722425, 2322425, 3022425, 3822425, 4722425, 5722425,
		6822425, 8022425, 9322425, 10722425, 12222425, 13822425, 15522425,
		17322425, 19222425, 21222425, 23322425, 25522425, 27822425,
		30222425, 32722425, 35322425, 38072425, 40972425, 44072425,
		47472425, 51172425, 55172425, 59472425, 64072425, 68972425,
		74172425, 79672425, 85472425, 91572425, 97972425, 104672425, 111672425,
	},
	"runecrafting": {
		50, 200, 450, 850, 1450, 2300, 3450, 4950, 6850, 9250, 12250,
		15900, 20900, 27400, 35900, 46900, 61900, 81900, 106900, 136900,
		176900, 226900, 286900, 356900, 446900,
	},
}

// SkillLevel returns how many level thresholds of skill xp has reached.
func SkillLevel(skill string, xp float64) int {
	table, ok := skillTables[skill]
	if !ok {
		table = skillTables["standard"]
	}
	return reached(table, xp)
}

// Thresholds maps an upper-case collection name to its cumulative tier
// amounts.
type Thresholds map[string][]float64

// Tier returns the collection tier of amount, or 0 for an unknown collection.
func (t Thresholds) Tier(collection string, amount float64) int {
	table, ok := t[strings.ToUpper(collection)]
	if !ok {
		return 0
	}
	return reached(table, amount)
}

// LoadThresholds reads collection tier thresholds from a JSON file shaped
// {"WHEAT": [50, 100, ...], ...}. A missing file yields an empty table and
// a nil error; callers log it as a warning.
func LoadThresholds(path string) (Thresholds, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Thresholds{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading collection thresholds: %w", err)
	}

	raw := map[string][]float64{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("parsing collection thresholds %s: %w", path, err)
	}
	t := make(Thresholds, len(raw))
	for name, table := range raw {
		t[strings.ToUpper(name)] = table
	}
	return t, true, nil
}

// reached counts ascending thresholds at or below v.
func reached(table []float64, v float64) int {
	n := 0
	for _, th := range table {
		if v < th {
			break
		}
		n++
	}
	return n
}
