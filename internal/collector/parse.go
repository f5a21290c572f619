package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Mr-Dark-debug/skydash/internal/database"
)

// ErrMemberNotFound is returned when the profile has no member with the
// configured player UUID.
var ErrMemberNotFound = errors.New("player is not a member of the profile")

// ParseProfile turns a Hypixel profile response into a snapshot at ts for
// the member whose UUID matches player (dashes and case are ignored).
func ParseProfile(body []byte, player string, ts int64, tiers Thresholds) (*database.Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("profile response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.Get("success").Bool() {
		if cause := root.Get("cause").String(); cause != "" {
			return nil, fmt.Errorf("%w: %s", ErrAPIUnsuccessful, cause)
		}
		return nil, ErrAPIUnsuccessful
	}

	profile := root.Get("profile")
	if !profile.IsObject() {
		return nil, errors.New("profile response has no profile object")
	}

	snap := &database.Snapshot{
		ProfileID:   profile.Get("profile_id").String(),
		Timestamp:   ts,
		CuteName:    "N/A",
		BankBalance: profile.Get("banking.balance").Float(),
	}
	if name := profile.Get("cute_name"); name.Exists() {
		snap.CuteName = name.String()
	}

	profile.Get("banking.transactions").ForEach(func(_, tx gjson.Result) bool {
		snap.BankTransactions = append(snap.BankTransactions, database.BankTransaction{
			Timestamp:     tx.Get("timestamp").Int(),
			Action:        tx.Get("action").String(),
			Amount:        tx.Get("amount").Float(),
			InitiatorName: tx.Get("initiator_name").String(),
		})
		return true
	})

	var member gjson.Result
	want := normalizeUUID(player)
	profile.Get("members").ForEach(func(uuid, m gjson.Result) bool {
		if normalizeUUID(uuid.String()) == want {
			snap.MemberUUID = uuid.String()
			member = m
			return false
		}
		return true
	})
	if !member.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, player)
	}

	parseMember(snap, member, tiers)
	return snap, nil
}

func parseMember(snap *database.Snapshot, m gjson.Result, tiers Thresholds) {
	snap.DeathCount = m.Get("player_data.death_count").Int()
	snap.Purse = m.Get("currencies.coin_purse").Float()

	// kills is either a number or a per-mob breakdown.
	kills := m.Get("player_stats.kills")
	if kills.IsObject() {
		var total float64
		kills.ForEach(func(_, v gjson.Result) bool {
			total += v.Float()
			return true
		})
		snap.Kills = int64(total)
	} else {
		snap.Kills = kills.Int()
	}

	m.Get("player_data.experience").ForEach(func(k, v gjson.Result) bool {
		name := strings.ToLower(strings.TrimPrefix(k.String(), "SKILL_"))
		xp := v.Float()
		snap.Skills = append(snap.Skills, database.SkillEntry{Name: name, XP: xp, Level: SkillLevel(name, xp)})
		return true
	})

	m.Get("slayer.slayer_bosses").ForEach(func(k, v gjson.Result) bool {
		if !v.Get("xp").Exists() {
			return true
		}
		entry := database.SlayerEntry{Name: k.String(), XP: v.Get("xp").Int()}
		for i := range entry.TierKills {
			entry.TierKills[i] = v.Get(fmt.Sprintf("boss_kills_tier_%d", i)).Int()
		}
		snap.Slayers = append(snap.Slayers, entry)
		return true
	})

	m.Get("collection").ForEach(func(k, v gjson.Result) bool {
		amount := v.Float()
		snap.Collections = append(snap.Collections, database.CollectionEntry{
			Name:   strings.ToUpper(k.String()),
			Amount: int64(amount),
			Tier:   tiers.Tier(k.String(), amount),
		})
		return true
	})

	m.Get("bestiary.kills").ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Number {
			snap.Bestiary = append(snap.Bestiary, database.BestiaryEntry{MobID: k.String(), Kills: v.Int()})
		}
		return true
	})
}

func normalizeUUID(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}
