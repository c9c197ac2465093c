package synth

import "github.com/Ondulab/sp3ctra-synth/internal/synthlog"

// StereoMode selects how the additive engine maps the image preprocessor's
// channel(s) to stereo (spec.md §6 "stereo_mode").
type StereoMode int

const (
	StereoMono StereoMode = iota
	StereoWarmCold
)

// Config is the typed, validated shape every option in spec.md §6 produces
// once parsed; parsing itself (files, flags, env) is an external
// collaborator and out of scope for this module.
type Config struct {
	AudioBufferSize int // frames per block, default 512
	SampleRate      int // Hz, default 48000

	NumVoicesPoly      int // default 8
	NumVoicesPhotowave int // default 8
	NumPartials        int // max_oscillators / num_partials
	PartialsPerOctave  int

	MasterVolume float32
	MixLevelAdditive  float32
	MixLevelPoly      float32
	MixLevelPhotowave float32

	AmplitudeGamma         float32
	MinAudibleAmplitude    float32
	HighFreqHarmonicLimitHz float32
	MaxHarmonicsPerVoice   int

	VolumeEnvAttack  float32 // seconds
	VolumeEnvDecay   float32
	VolumeEnvSustain float32 // 0..1
	VolumeEnvRelease float32

	FilterEnvAttack  float32
	FilterEnvDecay   float32
	FilterEnvSustain float32
	FilterEnvRelease float32

	LFOVibratoRateHz     float32
	LFOVibratoDepthSemis float32

	FilterCutoffHz float32
	FilterEnvDepth float32

	ContrastMin              float32
	ContrastAdjustmentPower  float32

	StereoMode StereoMode
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() Config {
	return Config{
		AudioBufferSize: 512,
		SampleRate:      48000,

		NumVoicesPoly:      8,
		NumVoicesPhotowave: 8,
		NumPartials:        1024,
		PartialsPerOctave:  96,

		MasterVolume:      0.8,
		MixLevelAdditive:  1.0,
		MixLevelPoly:      1.0,
		MixLevelPhotowave: 1.0,

		AmplitudeGamma:          1.0,
		MinAudibleAmplitude:     1.0 / 65535.0,
		HighFreqHarmonicLimitHz: 18000,
		MaxHarmonicsPerVoice:    64,

		VolumeEnvAttack:  0.01,
		VolumeEnvDecay:   0.1,
		VolumeEnvSustain: 0.7,
		VolumeEnvRelease: 0.2,

		FilterEnvAttack:  0.01,
		FilterEnvDecay:   0.1,
		FilterEnvSustain: 0.5,
		FilterEnvRelease: 0.2,

		LFOVibratoRateHz:     5,
		LFOVibratoDepthSemis: 0,

		FilterCutoffHz: 4000,
		FilterEnvDepth: 2000,

		ContrastMin:             0.1,
		ContrastAdjustmentPower: 1.0,

		StereoMode: StereoMono,
	}
}

// clampLog records a clamp against `once` so it is logged only the first
// time a given field is clamped in this process's lifetime (spec.md §7
// "Parameter out of range ... clamped ... logged once per session per
// parameter").
func clampLog(once *synthlog.Once, field string, v, lo, hi float32) float32 {
	if v < lo {
		once.Warn(field, "parameter out of range, clamped", "field", field, "value", v, "clampedTo", lo)
		return lo
	}
	if v > hi {
		once.Warn(field, "parameter out of range, clamped", "field", field, "value", v, "clampedTo", hi)
		return hi
	}
	return v
}

func clampLogInt(once *synthlog.Once, field string, v, lo, hi int) int {
	if v < lo {
		once.Warn(field, "parameter out of range, clamped", "field", field, "value", v, "clampedTo", lo)
		return lo
	}
	if v > hi {
		once.Warn(field, "parameter out of range, clamped", "field", field, "value", v, "clampedTo", hi)
		return hi
	}
	return v
}

// Validate clamps every out-of-range field to its valid domain, logging
// each clamp once via the given tracker (callers typically share one
// *synthlog.Once across the process's lifetime).
func (c *Config) Validate(once *synthlog.Once) {
	c.AudioBufferSize = clampLogInt(once, "audio_buffer_size", c.AudioBufferSize, 16, 1<<16)
	c.SampleRate = clampLogInt(once, "sample_rate", c.SampleRate, 8000, 192000)
	c.NumVoicesPoly = clampLogInt(once, "num_voices_poly", c.NumVoicesPoly, 1, 256)
	c.NumVoicesPhotowave = clampLogInt(once, "num_voices_photowave", c.NumVoicesPhotowave, 1, 256)
	c.NumPartials = clampLogInt(once, "num_partials", c.NumPartials, 1, 1<<20)
	c.PartialsPerOctave = clampLogInt(once, "partials_per_octave", c.PartialsPerOctave, 1, c.NumPartials)

	c.MasterVolume = clampLog(once, "master_volume", c.MasterVolume, 0, 1)
	c.MixLevelAdditive = clampLog(once, "mix_level_additive", c.MixLevelAdditive, 0, 1)
	c.MixLevelPoly = clampLog(once, "mix_level_poly", c.MixLevelPoly, 0, 1)
	c.MixLevelPhotowave = clampLog(once, "mix_level_photowave", c.MixLevelPhotowave, 0, 1)

	c.AmplitudeGamma = clampLog(once, "amplitude_gamma", c.AmplitudeGamma, 0.01, 8)
	c.MinAudibleAmplitude = clampLog(once, "min_audible_amplitude", c.MinAudibleAmplitude, 0, 1)
	c.HighFreqHarmonicLimitHz = clampLog(once, "high_freq_harmonic_limit_hz", c.HighFreqHarmonicLimitHz, 20, float32(c.SampleRate)/2)
	c.MaxHarmonicsPerVoice = clampLogInt(once, "max_harmonics_per_voice", c.MaxHarmonicsPerVoice, 1, 4096)

	c.VolumeEnvAttack = clampLog(once, "volume_env_attack", c.VolumeEnvAttack, 0, 30)
	c.VolumeEnvDecay = clampLog(once, "volume_env_decay", c.VolumeEnvDecay, 0, 30)
	c.VolumeEnvSustain = clampLog(once, "volume_env_sustain", c.VolumeEnvSustain, 0, 1)
	c.VolumeEnvRelease = clampLog(once, "volume_env_release", c.VolumeEnvRelease, 0, 30)

	c.FilterEnvAttack = clampLog(once, "filter_env_attack", c.FilterEnvAttack, 0, 30)
	c.FilterEnvDecay = clampLog(once, "filter_env_decay", c.FilterEnvDecay, 0, 30)
	c.FilterEnvSustain = clampLog(once, "filter_env_sustain", c.FilterEnvSustain, 0, 1)
	c.FilterEnvRelease = clampLog(once, "filter_env_release", c.FilterEnvRelease, 0, 30)

	c.LFOVibratoRateHz = clampLog(once, "lfo_vibrato_rate", c.LFOVibratoRateHz, 0, 40)
	c.LFOVibratoDepthSemis = clampLog(once, "lfo_vibrato_depth", c.LFOVibratoDepthSemis, 0, 12)

	c.FilterCutoffHz = clampLog(once, "filter_cutoff", c.FilterCutoffHz, 20, float32(c.SampleRate)/2)
	c.FilterEnvDepth = clampLog(once, "filter_env_depth", c.FilterEnvDepth, 0, float32(c.SampleRate)/2)

	c.ContrastMin = clampLog(once, "contrast_min", c.ContrastMin, 0, 1)
	c.ContrastAdjustmentPower = clampLog(once, "contrast_adjustment_power", c.ContrastAdjustmentPower, 0.1, 8)
}

// AttackSamples converts VolumeEnvAttack (seconds) to samples at SampleRate.
func (c *Config) AttackSamples() int  { return int(c.VolumeEnvAttack * float32(c.SampleRate)) }
func (c *Config) DecaySamples() int   { return int(c.VolumeEnvDecay * float32(c.SampleRate)) }
func (c *Config) ReleaseSamples() int { return int(c.VolumeEnvRelease * float32(c.SampleRate)) }

func (c *Config) FilterAttackSamples() int  { return int(c.FilterEnvAttack * float32(c.SampleRate)) }
func (c *Config) FilterDecaySamples() int   { return int(c.FilterEnvDecay * float32(c.SampleRate)) }
func (c *Config) FilterReleaseSamples() int { return int(c.FilterEnvRelease * float32(c.SampleRate)) }
