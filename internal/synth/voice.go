package synth

// VoiceBase holds the fields common to POLY and PHOTOWAVE voices: MIDI
// identity, the active flag, the volume envelope, and the trigger-order
// stamp used for stealing and note-off disambiguation (spec.md §3 "Voice").
//
// Invariant: Active == false implies VolumeADSR.State() == Idle within one
// block of each other (spec.md §8 invariant 3) — the engine clears Active
// only after observing Idle, but Idle can be reached up to one block before
// Active is cleared.
type VoiceBase struct {
	MIDINote     int
	Velocity     int
	Active       bool
	TriggerOrder uint64
	VolumeADSR   *ADSR

	// idleAt is the sample-clock time VolumeADSR last transitioned into
	// Idle; used by the Priority-3 note-off rule's grace window.
	idleAt      uint64
	idleAtValid bool
}

// NoteNum returns the MIDI note this voice is currently assigned to.
func (v *VoiceBase) NoteNum() int { return v.MIDINote }

// IsActive reports the Active flag.
func (v *VoiceBase) IsActive() bool { return v.Active }

// Order returns the trigger-order stamp.
func (v *VoiceBase) Order() uint64 { return v.TriggerOrder }

// EnvState returns the volume envelope's current stage.
func (v *VoiceBase) EnvState() ADSRState { return v.VolumeADSR.State() }

// Release gates the volume envelope into its Release stage. Active stays
// true until the engine observes the envelope reach Idle (spec.md §3
// "Voice" invariant) — Release does not clear it directly.
func (v *VoiceBase) Release() { v.VolumeADSR.Gate(false) }

// Trigger starts a new note: resets the envelope into Attack, records the
// MIDI identity and trigger-order stamp, and marks the voice active.
func (v *VoiceBase) Trigger(note, velocity int, order uint64) {
	v.MIDINote = note
	v.Velocity = velocity
	v.TriggerOrder = order
	v.Active = true
	v.idleAtValid = false
	v.VolumeADSR.Reset()
	v.VolumeADSR.Gate(true)
}

// MarkIdle records whether VolumeADSR is Idle at sample-clock `now`, for the
// Priority-3 note-off rule. Call once per block from the owning engine
// after stepping every voice.
func (v *VoiceBase) MarkIdle(now uint64) {
	if v.VolumeADSR.State() == ADSRIdle {
		if !v.idleAtValid {
			v.idleAt = now
			v.idleAtValid = true
		}
	} else {
		v.idleAtValid = false
	}
}

// IdleRecently reports whether the envelope reached Idle within the last
// graceSamples samples (Priority 3 of note-off resolution).
func (v *VoiceBase) IdleRecently(now uint64, graceSamples int) bool {
	if v.EnvState() != ADSRIdle {
		return false
	}
	if !v.idleAtValid {
		// Idle with no recorded transition (e.g. never triggered): treat
		// as outside the grace window so NoteOffNotFound can still fire.
		return false
	}
	elapsed := now - v.idleAt
	return elapsed <= uint64(graceSamples)
}

// VoiceHandle is the shared behaviour AllocateVoice/ResolveNoteOff need
// from a concrete voice type (*poly.Voice, *photowave.Voice).
type VoiceHandle interface {
	IsActive() bool
	Order() uint64
	NoteNum() int
	EnvState() ADSRState
	Release()
	IdleRecently(now uint64, graceSamples int) bool
}

// AllocateVoice finds a free voice (Active == false) for a new note-on. If
// none is free, it steals the voice with the smallest trigger order among
// those whose envelope is furthest along its lifecycle (Release preferred
// over Sustain, Decay, then Attack — spec.md §4.3). Returns the chosen
// voice's index; the caller is responsible for re-triggering it.
func AllocateVoice[T VoiceHandle](voices []T) int {
	for i, v := range voices {
		if !v.IsActive() {
			return i
		}
	}

	best := 0
	bestRank := voices[0].EnvState().StealRank()
	bestOrder := voices[0].Order()
	for i := 1; i < len(voices); i++ {
		v := voices[i]
		rank := v.EnvState().StealRank()
		if rank < bestRank || (rank == bestRank && v.Order() < bestOrder) {
			best = i
			bestRank = rank
			bestOrder = v.Order()
		}
	}
	return best
}

// NoteOffOutcome reports how a note-off was resolved, for logging.
type NoteOffOutcome int

const (
	NoteOffReleased     NoteOffOutcome = iota // Priority 1: voice released
	NoteOffLateDup                            // Priority 2: already releasing, acknowledged
	NoteOffGraceIgnored                       // Priority 3: recently idle, ignored
	NoteOffNotFound                           // nothing matched: log a warning
)

// IdleGraceSamples is the default grace window (spec.md §4.3 "~20ms").
func IdleGraceSamples(sampleRate int) int {
	return sampleRate / 50 // 20ms
}

// ResolveNoteOff implements the three-priority search from spec.md §4.3/§4.4.
// Priority 2 explicitly does NOT consult IsActive() — a voice in Release may
// already have Active == false if its envelope reached Idle between note-on
// and this note-off (spec.md §9).
func ResolveNoteOff[T VoiceHandle](voices []T, note int, now uint64, graceSamples int) (int, NoteOffOutcome) {
	// Priority 1: active voices mid-lifecycle (Attack/Decay/Sustain), oldest first.
	bestIdx, bestOrder := -1, ^uint64(0)
	for i, v := range voices {
		if v.NoteNum() != note {
			continue
		}
		switch v.EnvState() {
		case ADSRAttack, ADSRDecay, ADSRSustain:
			if v.IsActive() && v.Order() < bestOrder {
				bestIdx, bestOrder = i, v.Order()
			}
		}
	}
	if bestIdx >= 0 {
		voices[bestIdx].Release()
		return bestIdx, NoteOffReleased
	}

	// Priority 2: already in Release (regardless of Active), oldest first.
	bestIdx, bestOrder = -1, ^uint64(0)
	for i, v := range voices {
		if v.NoteNum() != note {
			continue
		}
		if v.EnvState() == ADSRRelease && v.Order() < bestOrder {
			bestIdx, bestOrder = i, v.Order()
		}
	}
	if bestIdx >= 0 {
		return bestIdx, NoteOffLateDup
	}

	// Priority 3: recently idle, within the grace window.
	for i, v := range voices {
		if v.NoteNum() != note {
			continue
		}
		if v.IdleRecently(now, graceSamples) {
			return i, NoteOffGraceIgnored
		}
	}

	return -1, NoteOffNotFound
}
