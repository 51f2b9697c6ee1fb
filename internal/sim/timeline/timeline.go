package timeline

import (
	"errors"
	"fmt"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/tuning"
)

var (
	// ErrNoSpace means no channel window fits the play within the tick.
	ErrNoSpace = errors.New("no space in timeline")
	// ErrOverflow means the modifier stack is at its cap.
	ErrOverflow = errors.New("modifier stack full")
	// ErrLocked means the play has modifiers attached and cannot be
	// withdrawn.
	ErrLocked = errors.New("play has modifiers attached")
)

// Slot is one scheduled play with its resolved window. Windows are
// fractions of the tick, [Start,End).
type Slot struct {
	Play     *Play
	Start    float64
	End      float64
	Channels []string
}

// Timeline is one agent's schedule for the current tick. It is the single
// source of truth for commit-phase rules and defender pairing, and is
// rebuilt empty every tick.
type Timeline struct {
	Slots []Slot
}

// Overlaps reports whether two half-open windows intersect.
func Overlaps(aStart, aEnd, bStart, bEnd float64) bool {
	return aStart < bEnd && bStart < aEnd
}

// AddPlay schedules a play at the first time all of its technique's
// channels are free for the technique's duration. Returns the slot index,
// or ErrNoSpace when nothing fits before the tick ends.
func (tl *Timeline) AddPlay(play *Play, cats *catalogs.Catalogs, tun tuning.Tuning) (int, error) {
	if len(tl.Slots) >= tun.SlotCap {
		return 0, fmt.Errorf("timeline at %d slots: %w", tun.SlotCap, ErrNoSpace)
	}
	card, ok := cats.Cards.ByID[play.CardID]
	if !ok {
		return 0, fmt.Errorf("card %q: %w", play.CardID, catalogs.ErrUnknownCard)
	}
	tech, ok := cats.Techniques.ByID[card.TechniqueID]
	if !ok {
		return 0, fmt.Errorf("card %q technique %q: %w", card.ID, card.TechniqueID, catalogs.ErrUnknownTechnique)
	}

	start, ok := tl.nextAvailableStart(tech.Channels, tech.Duration)
	if !ok {
		return 0, fmt.Errorf("card %q needs %v for %.2f: %w", card.ID, tech.Channels, tech.Duration, ErrNoSpace)
	}
	tl.Slots = append(tl.Slots, Slot{
		Play:     play,
		Start:    start,
		End:      start + tech.Duration,
		Channels: tech.Channels,
	})
	return len(tl.Slots) - 1, nil
}

// nextAvailableStart scans candidate starts: time zero plus the end of
// every slot sharing a channel, earliest first, and takes the first where
// every required channel is free for the full duration within the tick.
func (tl *Timeline) nextAvailableStart(channels []string, duration float64) (float64, bool) {
	candidates := []float64{0}
	for _, s := range tl.Slots {
		if sharesChannel(s.Channels, channels) {
			candidates = append(candidates, s.End)
		}
	}
	best := -1.0
	for _, start := range candidates {
		if start+duration > 1.0 {
			continue
		}
		if tl.channelsFree(channels, start, start+duration) {
			if best < 0 || start < best {
				best = start
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

func (tl *Timeline) channelsFree(channels []string, start, end float64) bool {
	for _, s := range tl.Slots {
		if !sharesChannel(s.Channels, channels) {
			continue
		}
		if Overlaps(s.Start, s.End, start, end) {
			return false
		}
	}
	return true
}

func sharesChannel(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// AddModifier stacks a modifier card onto a slot's play. Returns
// ErrOverflow at the cap; the timeline is untouched on failure.
func (tl *Timeline) AddModifier(slot int, cardID string, source *Source, tun tuning.Tuning) error {
	play := tl.Slots[slot].Play
	if len(play.Modifiers) >= tun.ModifierCap {
		return fmt.Errorf("play %q at %d modifiers: %w", play.CardID, tun.ModifierCap, ErrOverflow)
	}
	play.Modifiers = append(play.Modifiers, Modifier{CardID: cardID, Source: source})
	return nil
}

// RemovePlay withdraws an unmodified play. A play with attached modifiers
// is a committed decision; withdrawing it fails with ErrLocked and leaves
// the timeline unchanged. Resource refunds are the caller's business.
func (tl *Timeline) RemovePlay(slot int) (*Play, error) {
	play := tl.Slots[slot].Play
	if len(play.Modifiers) > 0 {
		return nil, fmt.Errorf("play %q: %w", play.CardID, ErrLocked)
	}
	tl.Slots = append(tl.Slots[:slot], tl.Slots[slot+1:]...)
	return play, nil
}

// Cancel force-removes a play regardless of modifiers. Used by cancel_play
// rule effects, which override the withdraw restriction.
func (tl *Timeline) Cancel(slot int) *Play {
	play := tl.Slots[slot].Play
	tl.Slots = append(tl.Slots[:slot], tl.Slots[slot+1:]...)
	return play
}

// FindOverlapping returns the index of the first slot whose window
// overlaps [start,end), or -1.
func (tl *Timeline) FindOverlapping(start, end float64) int {
	for i, s := range tl.Slots {
		if Overlaps(s.Start, s.End, start, end) {
			return i
		}
	}
	return -1
}

// IndexOf locates a play's slot, or -1 if it is no longer scheduled.
func (tl *Timeline) IndexOf(play *Play) int {
	for i, s := range tl.Slots {
		if s.Play == play {
			return i
		}
	}
	return -1
}

// Reset clears the schedule for the next tick.
func (tl *Timeline) Reset() {
	tl.Slots = tl.Slots[:0]
}
