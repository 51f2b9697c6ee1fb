package combat

import (
	"math"
	"testing"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/rng"
	"duelforge.gg/internal/sim/tuning"
)

func loadCats(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func TestHitChanceNeutralThrust(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	att := AttackContext{
		Technique: cats.Techniques.ByID["thrust"],
		Weapon:    cats.Weapons.ByID["arming_sword"],
		Stakes:    Guarded,
		Balance:   1.0,
		Advantage: 0.5,
	}
	def := DefenseContext{Balance: 1.0}

	// 0.5 - 0.7*0.1 + 0.6*0.1 + 0 + 0 + (1.0-0.5)*0.2 + (1-1.0)*0.15
	want := 0.59
	if got := HitChance(att, def, tun); math.Abs(got-want) > 1e-9 {
		t.Fatalf("hit chance = %v, want %v", got, want)
	}
}

func TestHitChanceClampsAtExtremes(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	hard := AttackContext{
		Technique: catalogs.TechniqueDef{ID: "impossible", Difficulty: 10, AttackMode: "thrust"},
		Weapon:    cats.Weapons.ByID["arming_sword"],
		Stakes:    Probing,
		Balance:   0,
		Advantage: 0,
	}
	if got := HitChance(hard, DefenseContext{Balance: 1}, tun); got != tun.HitChanceMin {
		t.Fatalf("floor clamp: got %v, want %v", got, tun.HitChanceMin)
	}

	easy := AttackContext{
		Technique: catalogs.TechniqueDef{ID: "trivial", Difficulty: 0, AttackMode: "thrust"},
		Weapon:    cats.Weapons.ByID["arming_sword"],
		Stakes:    Reckless,
		Balance:   1,
		Advantage: 1,
	}
	if got := HitChance(easy, DefenseContext{Balance: 0}, tun); got != tun.HitChanceMax {
		t.Fatalf("ceiling clamp: got %v, want %v", got, tun.HitChanceMax)
	}
}

func TestActiveDefenseReducesChance(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	att := AttackContext{
		Technique: cats.Techniques.ByID["thrust"],
		Weapon:    cats.Weapons.ByID["arming_sword"],
		Stakes:    Guarded,
		Balance:   1.0,
		Advantage: 0.5,
	}
	passive := HitChance(att, DefenseContext{Balance: 1.0}, tun)

	parry := cats.Techniques.ByID["parry_high"]
	sword := cats.Weapons.ByID["arming_sword"]
	active := HitChance(att, DefenseContext{Technique: &parry, Weapon: &sword, Balance: 1.0}, tun)

	// 0.59 * thrust_mult(0.6) - parry(0.7)*0.1
	want := 0.59*0.6 - 0.07
	if math.Abs(active-want) > 1e-9 {
		t.Fatalf("active defense chance = %v, want %v", active, want)
	}
	if active >= passive {
		t.Fatalf("active defense must reduce chance: %v >= %v", active, passive)
	}
}

func TestResolveOutcomeFailureModes(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()
	sword := cats.Weapons.ByID["arming_sword"]

	att := AttackContext{
		Technique: cats.Techniques.ByID["thrust"],
		Weapon:    sword,
		Stakes:    Probing,
		Balance:   0,
		Advantage: 0,
	}

	cases := []struct {
		tech string
		want Outcome
	}{
		{"parry_high", Countered}, // riposte parry
		{"block_brace", Blocked},
		{"deflect_sweep", Countered}, // riposte deflect
		{"dodge_step", Dodged},
	}
	for _, tc := range cases {
		tech := cats.Techniques.ByID[tc.tech]
		def := DefenseContext{Technique: &tech, Weapon: &sword, Balance: 1.0}

		draw := rng.New(7, "outcome-"+tc.tech)
		sawHit, sawFail := false, false
		for i := 0; i < 500 && !(sawHit && sawFail); i++ {
			outcome, chance, roll := ResolveOutcome(att, def, draw, tun)
			if roll <= chance {
				if outcome != Hit {
					t.Fatalf("%s: roll %v <= chance %v but outcome %v", tc.tech, roll, chance, outcome)
				}
				sawHit = true
				continue
			}
			if outcome != tc.want {
				t.Fatalf("%s: failure outcome = %v, want %v", tc.tech, outcome, tc.want)
			}
			sawFail = true
		}
		if !sawFail {
			t.Fatalf("%s: never failed in 500 draws", tc.tech)
		}
	}
}

func TestResolveOutcomePassiveMiss(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	att := AttackContext{
		Technique: cats.Techniques.ByID["thrust"],
		Weapon:    cats.Weapons.ByID["arming_sword"],
		Stakes:    Probing,
		Balance:   0,
		Advantage: 0,
	}
	draw := rng.New(11, "outcome-passive")
	for i := 0; i < 200; i++ {
		outcome, chance, roll := ResolveOutcome(att, DefenseContext{Balance: 1}, draw, tun)
		if roll > chance && outcome != Miss {
			t.Fatalf("passive defense failure must be Miss, got %v", outcome)
		}
	}
}

func TestStakesHitShift(t *testing.T) {
	shifts := map[Stakes]float64{Probing: -0.1, Guarded: 0, Committed: 0.1, Reckless: 0.2}
	for s, want := range shifts {
		if got := s.HitShift(); got != want {
			t.Errorf("%v shift = %v, want %v", s, got, want)
		}
	}
}
