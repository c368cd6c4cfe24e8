package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cwbudde/algo-haptic/encoder"
	"github.com/cwbudde/algo-haptic/neuron"
	"github.com/cwbudde/algo-haptic/render"
)

// Config is the fully-resolved engine configuration: neuron parameter sets,
// input current scaling, per-receptor sound parameters and the material
// table. Load a preset file with LoadJSON or start from Default.
type Config struct {
	DtMs      float64
	SA        encoder.SAParams
	RAMotion  neuron.Params
	RAClick   encoder.RAClickParams
	Input     encoder.InputConfig
	Sound     SoundConfig
	Materials map[string]render.Profile
}

// SoundConfig holds the per-receptor playback sound parameters.
type SoundConfig struct {
	SAHz        float64
	SAMs        float64
	SAAmp       float64
	SAFadeOutMs float64
	SAVolume    float64

	RAMotionHz        float64
	RAMotionMs        float64
	RAMotionAmp       float64
	RAMotionFadeOutMs float64
	// Speed-dependent volume mapping for the motion receptor: speeds at or
	// below VolMinSpeed play at MinVolScale, speeds at or above VolMaxSpeed
	// at MaxVolScale, linear in between.
	RAMotionVolMinSpeed float64
	RAMotionVolMaxSpeed float64
	RAMotionMinVolScale float64
	RAMotionMaxVolScale float64

	RAClickHz        float64
	RAClickMs        float64
	RAClickAmp       float64
	RAClickFadeOutMs float64
	RAClickVolume    float64
}

// Default returns the built-in configuration. Every value can be overridden
// by a preset file.
func Default() *Config {
	return &Config{
		DtMs: 1.0,
		SA: encoder.SAParams{
			Neuron: neuron.Params{A: 0.02, B: 0.2, C: -65, D: 8, VInit: -70},
			InitA:  0.02,
		},
		RAMotion: neuron.Params{A: 0.4, B: 0.25, C: -65, D: 1.5, VInit: -65},
		RAClick: encoder.RAClickParams{
			Neuron: neuron.Params{A: 0.3, B: 0.25, C: -65, D: 6, VInit: -65},
			DBurst: 20,
		},
		Input: encoder.InputConfig{
			ClickMag:              12,
			ClickScaleOnChange:    25,
			MotionScaleOnSpeedDev: 0.02,
			MotionClipMin:         -30,
			MotionClipMax:         30,
			ClickClipMin:          -40,
			ClickClipMax:          40,
			ClickSustainTicks:     3,
			MinSpeedForMotion:     1,
		},
		Sound: SoundConfig{
			SAHz: 25, SAMs: 120, SAAmp: 0.6, SAFadeOutMs: 10, SAVolume: 0.9,

			RAMotionHz: 35, RAMotionMs: 90, RAMotionAmp: 1.0, RAMotionFadeOutMs: 10,
			RAMotionVolMinSpeed: 100, RAMotionVolMaxSpeed: 5000,
			RAMotionMinVolScale: 0.5, RAMotionMaxVolScale: 1.0,

			RAClickHz: 50, RAClickMs: 70, RAClickAmp: 1.0, RAClickFadeOutMs: 5,
			RAClickVolume: 0.8,
		},
		Materials: map[string]render.Profile{
			"glass":   {Material: render.MaterialGlass, Roughness: 0.2, FrequencyScale: 1.3},
			"metal":   {Material: render.MaterialMetal, Roughness: 0.5, FrequencyScale: 1.2},
			"wood":    {Material: render.MaterialWood, Roughness: 0.8, FrequencyScale: 1.0},
			"plastic": {Material: render.MaterialPlastic, Roughness: 0.4, FrequencyScale: 1.0},
			"fabric":  {Material: render.MaterialFabric, Roughness: 1.2, FrequencyScale: 0.9},
			"ceramic": {Material: render.MaterialCeramic, Roughness: 0.3, FrequencyScale: 1.15},
			"rubber":  {Material: render.MaterialRubber, Roughness: 0.6, FrequencyScale: 0.8},
		},
	}
}

// File is the JSON schema for haptic presets. Absent fields keep their
// default value; present fields are validated before being applied.
type File struct {
	DtMs      *float64                   `json:"dt_ms"`
	SA        *NeuronSetting             `json:"sa_neuron"`
	RAMotion  *NeuronSetting             `json:"ra_motion_neuron"`
	RAClick   *NeuronSetting             `json:"ra_click_neuron"`
	Input     *InputSetting              `json:"input_current"`
	Sound     *SoundSetting              `json:"sound"`
	Materials map[string]MaterialSetting `json:"materials"`
}

// NeuronSetting is a partial Izhikevich parameter override.
type NeuronSetting struct {
	A     *float64 `json:"a"`
	B     *float64 `json:"b"`
	C     *float64 `json:"c"`
	D     *float64 `json:"d"`
	VInit *float64 `json:"v_init"`
	// InitA is accepted in the sa_neuron block only.
	InitA *float64 `json:"init_a"`
	// DBurst is accepted in the ra_click_neuron block only.
	DBurst *float64 `json:"d_burst"`
}

// InputSetting is a partial input-current configuration override.
type InputSetting struct {
	ClickMag              *float64 `json:"click_mag"`
	ClickScaleOnChange    *float64 `json:"click_scale_on_change"`
	MotionScaleOnSpeedDev *float64 `json:"motion_scale_on_speed_dev"`
	MotionClipMin         *float64 `json:"motion_clip_min"`
	MotionClipMax         *float64 `json:"motion_clip_max"`
	ClickClipMin          *float64 `json:"click_clip_min"`
	ClickClipMax          *float64 `json:"click_clip_max"`
	ClickSustainTicks     *int     `json:"click_sustain_ticks"`
	MinSpeedForMotion     *float64 `json:"min_speed_for_motion"`
}

// SoundSetting is a partial sound configuration override.
type SoundSetting struct {
	SAHz        *float64 `json:"sa_hz"`
	SAMs        *float64 `json:"sa_ms"`
	SAAmp       *float64 `json:"sa_amp"`
	SAFadeOutMs *float64 `json:"sa_fade_out_ms"`
	SAVolume    *float64 `json:"sa_volume"`

	RAMotionHz          *float64 `json:"ra_motion_hz"`
	RAMotionMs          *float64 `json:"ra_motion_ms"`
	RAMotionAmp         *float64 `json:"ra_motion_amp"`
	RAMotionFadeOutMs   *float64 `json:"ra_motion_fade_out_ms"`
	RAMotionVolMinSpeed *float64 `json:"ra_motion_vol_min_spd"`
	RAMotionVolMaxSpeed *float64 `json:"ra_motion_vol_max_spd"`
	RAMotionMinVolScale *float64 `json:"ra_motion_min_vol_scl"`
	RAMotionMaxVolScale *float64 `json:"ra_motion_max_vol_scl"`

	RAClickHz        *float64 `json:"ra_click_hz"`
	RAClickMs        *float64 `json:"ra_click_ms"`
	RAClickAmp       *float64 `json:"ra_click_amp"`
	RAClickFadeOutMs *float64 `json:"ra_click_fade_out_ms"`
	RAClickVolume    *float64 `json:"ra_click_volume"`
}

// MaterialSetting is a material table entry in a preset file. An entry
// replaces the default entry of the same name wholesale: roughness and
// frequency scale are required, the named extra coefficient is optional.
type MaterialSetting struct {
	Type           string   `json:"type"`
	Roughness      *float64 `json:"roughness"`
	FrequencyScale *float64 `json:"frequency_scale"`
	Coefficient    *float64 `json:"coefficient"`
}

// LoadJSON loads a preset JSON file and applies it on top of the defaults.
func LoadJSON(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := ApplyFile(cfg, &f); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFile applies a parsed preset file onto an existing config.
func ApplyFile(dst *Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.DtMs != nil {
		if !(*f.DtMs > 0) {
			return fmt.Errorf("dt_ms must be > 0")
		}
		dst.DtMs = *f.DtMs
	}

	if f.SA != nil {
		applyNeuron(&dst.SA.Neuron, f.SA)
		if f.SA.InitA != nil {
			if !(*f.SA.InitA > 0) {
				return fmt.Errorf("sa_neuron.init_a must be > 0")
			}
			dst.SA.InitA = *f.SA.InitA
		}
		if f.SA.DBurst != nil {
			return fmt.Errorf("sa_neuron.d_burst is not a valid key")
		}
	}
	if f.RAMotion != nil {
		applyNeuron(&dst.RAMotion, f.RAMotion)
		if f.RAMotion.InitA != nil || f.RAMotion.DBurst != nil {
			return fmt.Errorf("ra_motion_neuron accepts only a, b, c, d, v_init")
		}
	}
	if f.RAClick != nil {
		applyNeuron(&dst.RAClick.Neuron, f.RAClick)
		if f.RAClick.DBurst != nil {
			if !(*f.RAClick.DBurst >= 0) {
				return fmt.Errorf("ra_click_neuron.d_burst must be >= 0")
			}
			dst.RAClick.DBurst = *f.RAClick.DBurst
		}
		if f.RAClick.InitA != nil {
			return fmt.Errorf("ra_click_neuron.init_a is not a valid key")
		}
	}
	for name, p := range map[string]neuron.Params{
		"sa_neuron":        dst.SA.Neuron,
		"ra_motion_neuron": dst.RAMotion,
		"ra_click_neuron":  dst.RAClick.Neuron,
	} {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: %v", name, err)
		}
	}

	if err := applyInput(&dst.Input, f.Input); err != nil {
		return err
	}
	if err := dst.Input.Validate(); err != nil {
		return fmt.Errorf("input_current: %v", err)
	}

	if err := applySound(&dst.Sound, f.Sound); err != nil {
		return err
	}

	if len(f.Materials) > 0 {
		if dst.Materials == nil {
			dst.Materials = make(map[string]render.Profile)
		}
		names := make([]string, 0, len(f.Materials))
		for name := range f.Materials {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			entry := f.Materials[name]
			profile, err := resolveMaterial(name, entry)
			if err != nil {
				return err
			}
			dst.Materials[name] = profile
		}
	}
	return nil
}

func applyNeuron(dst *neuron.Params, s *NeuronSetting) {
	if s.A != nil {
		dst.A = *s.A
	}
	if s.B != nil {
		dst.B = *s.B
	}
	if s.C != nil {
		dst.C = *s.C
	}
	if s.D != nil {
		dst.D = *s.D
	}
	if s.VInit != nil {
		dst.VInit = *s.VInit
	}
}

func applyInput(dst *encoder.InputConfig, s *InputSetting) error {
	if s == nil {
		return nil
	}
	if s.ClickMag != nil {
		dst.ClickMag = *s.ClickMag
	}
	if s.ClickScaleOnChange != nil {
		dst.ClickScaleOnChange = *s.ClickScaleOnChange
	}
	if s.MotionScaleOnSpeedDev != nil {
		dst.MotionScaleOnSpeedDev = *s.MotionScaleOnSpeedDev
	}
	if s.MotionClipMin != nil {
		dst.MotionClipMin = *s.MotionClipMin
	}
	if s.MotionClipMax != nil {
		dst.MotionClipMax = *s.MotionClipMax
	}
	if s.ClickClipMin != nil {
		dst.ClickClipMin = *s.ClickClipMin
	}
	if s.ClickClipMax != nil {
		dst.ClickClipMax = *s.ClickClipMax
	}
	if s.ClickSustainTicks != nil {
		if *s.ClickSustainTicks < 0 {
			return fmt.Errorf("input_current.click_sustain_ticks must be >= 0")
		}
		dst.ClickSustainTicks = *s.ClickSustainTicks
	}
	if s.MinSpeedForMotion != nil {
		dst.MinSpeedForMotion = *s.MinSpeedForMotion
	}
	return nil
}

func applySound(dst *SoundConfig, s *SoundSetting) error {
	if s == nil {
		return nil
	}
	fields := []struct {
		name string
		src  *float64
		out  *float64
		min  float64
	}{
		{"sa_hz", s.SAHz, &dst.SAHz, 1},
		{"sa_ms", s.SAMs, &dst.SAMs, 1},
		{"sa_amp", s.SAAmp, &dst.SAAmp, 0},
		{"sa_fade_out_ms", s.SAFadeOutMs, &dst.SAFadeOutMs, 0},
		{"sa_volume", s.SAVolume, &dst.SAVolume, 0},
		{"ra_motion_hz", s.RAMotionHz, &dst.RAMotionHz, 1},
		{"ra_motion_ms", s.RAMotionMs, &dst.RAMotionMs, 1},
		{"ra_motion_amp", s.RAMotionAmp, &dst.RAMotionAmp, 0},
		{"ra_motion_fade_out_ms", s.RAMotionFadeOutMs, &dst.RAMotionFadeOutMs, 0},
		{"ra_motion_vol_min_spd", s.RAMotionVolMinSpeed, &dst.RAMotionVolMinSpeed, 0},
		{"ra_motion_vol_max_spd", s.RAMotionVolMaxSpeed, &dst.RAMotionVolMaxSpeed, 0},
		{"ra_motion_min_vol_scl", s.RAMotionMinVolScale, &dst.RAMotionMinVolScale, 0},
		{"ra_motion_max_vol_scl", s.RAMotionMaxVolScale, &dst.RAMotionMaxVolScale, 0},
		{"ra_click_hz", s.RAClickHz, &dst.RAClickHz, 1},
		{"ra_click_ms", s.RAClickMs, &dst.RAClickMs, 1},
		{"ra_click_amp", s.RAClickAmp, &dst.RAClickAmp, 0},
		{"ra_click_fade_out_ms", s.RAClickFadeOutMs, &dst.RAClickFadeOutMs, 0},
		{"ra_click_volume", s.RAClickVolume, &dst.RAClickVolume, 0},
	}
	for _, e := range fields {
		if e.src == nil {
			continue
		}
		if !(*e.src >= e.min) {
			return fmt.Errorf("sound.%s must be >= %g", e.name, e.min)
		}
		*e.out = *e.src
	}
	if dst.RAMotionVolMaxSpeed <= dst.RAMotionVolMinSpeed {
		return fmt.Errorf("sound.ra_motion_vol_max_spd must be > ra_motion_vol_min_spd")
	}
	if dst.RAMotionMaxVolScale < dst.RAMotionMinVolScale {
		return fmt.Errorf("sound.ra_motion_max_vol_scl must be >= ra_motion_min_vol_scl")
	}
	return nil
}

func resolveMaterial(name string, entry MaterialSetting) (render.Profile, error) {
	typeName := entry.Type
	if typeName == "" {
		typeName = name
	}
	m, err := render.ParseMaterial(typeName)
	if err != nil {
		return render.Profile{}, fmt.Errorf("materials[%s]: %v", name, err)
	}
	if entry.Roughness == nil {
		return render.Profile{}, fmt.Errorf("materials[%s]: roughness is required", name)
	}
	if !(*entry.Roughness >= 0) {
		return render.Profile{}, fmt.Errorf("materials[%s]: roughness must be >= 0", name)
	}
	if entry.FrequencyScale == nil {
		return render.Profile{}, fmt.Errorf("materials[%s]: frequency_scale is required", name)
	}
	if !(*entry.FrequencyScale > 0) {
		return render.Profile{}, fmt.Errorf("materials[%s]: frequency_scale must be > 0", name)
	}
	p := render.Profile{
		Material:       m,
		Roughness:      *entry.Roughness,
		FrequencyScale: *entry.FrequencyScale,
	}
	if entry.Coefficient != nil {
		if !(*entry.Coefficient > 0) {
			return render.Profile{}, fmt.Errorf("materials[%s]: coefficient must be > 0", name)
		}
		p.Coefficient = *entry.Coefficient
	}
	return p, nil
}
