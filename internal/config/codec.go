package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/gesture"
)

// Format is a settings file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatForPath picks the format from the file extension. Anything that is
// not .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Persisted field names.
const (
	fieldMirrorView     = "mirror_view"
	fieldMirrorControls = "mirror_controls"
	fieldDebugDraw      = "debug_draw"
	fieldThresholds     = "thresholds"
	fieldPinchDist      = "pinch_dist"
	fieldTwoSplitMin    = "two_split_min"
	fieldAssignments    = "assignments"
	fieldAction         = "action"
	fieldMode           = "mode"
	fieldRepeatHz       = "repeat_hz"
	fieldTapMs          = "tap_ms"
)

// Parse decodes a settings document.
//
// Only a document that cannot be decoded at all is an error. Unknown keys are
// ignored, and fields that are missing or have the wrong type fall back to
// their defaults with a warning recorded on the snapshot. When "assignments"
// is present, gesture keys it does not mention are bound to no action.
func Parse(data []byte, f Format) (*Snapshot, error) {
	var raw map[string]any

	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s settings: %w", f, err)
	}

	d := &decoder{}
	s := d.snapshot(raw)
	s.Warnings = d.warnings
	return s, nil
}

type decoder struct {
	warnings []string
}

func (d *decoder) warnf(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

func (d *decoder) snapshot(raw map[string]any) *Snapshot {
	s := Default()

	s.MirrorView = d.boolField(raw, fieldMirrorView, s.MirrorView)
	s.MirrorControls = d.boolField(raw, fieldMirrorControls, s.MirrorControls)
	s.DebugDraw = d.boolField(raw, fieldDebugDraw, s.DebugDraw)

	if v, ok := raw[fieldThresholds]; ok {
		if m, ok := v.(map[string]any); ok {
			s.Thresholds.PinchDist = d.positiveField(m, fieldThresholds+"."+fieldPinchDist, fieldPinchDist, s.Thresholds.PinchDist)
			s.Thresholds.TwoSplitMin = d.positiveField(m, fieldThresholds+"."+fieldTwoSplitMin, fieldTwoSplitMin, s.Thresholds.TwoSplitMin)
		} else if v != nil {
			d.warnf("%s: expected an object, using defaults", fieldThresholds)
		}
	}

	v, ok := raw[fieldAssignments]
	if !ok {
		return s
	}
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			d.warnf("%s: expected an object, using defaults", fieldAssignments)
		}
		return s
	}

	for k := gesture.Key(0); k < gesture.NumKeys; k++ {
		s.Assignments[k] = action.NewDescriptor(action.None)
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		k, ok := gesture.ParseKey(name)
		if !ok {
			d.warnf("%s.%s: unknown gesture key, ignored", fieldAssignments, name)
			continue
		}
		s.Assignments[k] = d.descriptor(name, m[name])
	}
	return s
}

// descriptor decodes one assignment, either the short string form or an object.
func (d *decoder) descriptor(key string, v any) action.Descriptor {
	path := fieldAssignments + "." + key
	desc := action.NewDescriptor(action.None)

	var m map[string]any
	switch t := v.(type) {
	case nil:
		return desc
	case string:
		desc.Action = d.actionID(path, t)
		return desc
	case map[string]any:
		m = t
	default:
		d.warnf("%s: expected a string or an object, bound to none", path)
		return desc
	}

	if a, ok := m[fieldAction]; ok && a != nil {
		if str, ok := a.(string); ok {
			desc.Action = d.actionID(path, str)
		} else {
			d.warnf("%s.%s: expected a string, bound to none", path, fieldAction)
		}
	}

	if mv, ok := m[fieldMode]; ok && mv != nil {
		str, _ := mv.(string)
		mode, err := action.ParseMode(str)
		if err != nil {
			d.warnf("%s.%s: %v, using hold", path, fieldMode, err)
		}
		desc.Mode = mode
	}

	if hz, ok := d.number(m, path+"."+fieldRepeatHz, fieldRepeatHz); ok {
		if hz < action.MinRepeatHz {
			d.warnf("%s.%s: %g is below %g, clamped", path, fieldRepeatHz, hz, action.MinRepeatHz)
			hz = action.MinRepeatHz
		}
		desc.RepeatHz = hz
	}

	if ms, ok := d.number(m, path+"."+fieldTapMs, fieldTapMs); ok {
		ms = math.Round(ms)
		switch {
		case ms < 1:
			d.warnf("%s.%s: must be at least 1, using %d", path, fieldTapMs, action.DefaultTapMs)
		case ms > action.MaxTapMs:
			d.warnf("%s.%s: %g is above %d, clamped", path, fieldTapMs, ms, action.MaxTapMs)
			desc.TapMs = action.MaxTapMs
		default:
			desc.TapMs = int(ms)
		}
	}

	return desc
}

func (d *decoder) actionID(path, s string) action.ID {
	id, err := action.Parse(s)
	if err != nil {
		d.warnf("%s: %v, bound to none", path, err)
	}
	return id
}

func (d *decoder) boolField(m map[string]any, name string, def bool) bool {
	v, ok := m[name]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	d.warnf("%s: expected a boolean, using %t", name, def)
	return def
}

func (d *decoder) positiveField(m map[string]any, path, name string, def float64) float64 {
	f, ok := d.number(m, path, name)
	if !ok {
		return def
	}
	if f <= 0 {
		d.warnf("%s: must be positive, using %g", path, def)
		return def
	}
	return f
}

// number reads a numeric field. It reports false when the field is absent
// or unusable.
func (d *decoder) number(m map[string]any, path, name string) (float64, bool) {
	v, ok := m[name]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		d.warnf("%s: expected a number, using default", path)
		return 0, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

type document struct {
	MirrorView     bool                        `json:"mirror_view" yaml:"mirror_view"`
	MirrorControls bool                        `json:"mirror_controls" yaml:"mirror_controls"`
	DebugDraw      bool                        `json:"debug_draw" yaml:"debug_draw"`
	Thresholds     thresholdsDocument          `json:"thresholds" yaml:"thresholds"`
	Assignments    map[string]assignmentRecord `json:"assignments" yaml:"assignments"`
}

type thresholdsDocument struct {
	PinchDist   float64 `json:"pinch_dist" yaml:"pinch_dist"`
	TwoSplitMin float64 `json:"two_split_min" yaml:"two_split_min"`
}

type assignmentRecord struct {
	Action   string  `json:"action" yaml:"action"`
	Mode     string  `json:"mode" yaml:"mode"`
	RepeatHz float64 `json:"repeat_hz" yaml:"repeat_hz"`
	TapMs    int     `json:"tap_ms" yaml:"tap_ms"`
}

// Marshal encodes s in the persisted schema. Every assignment is written in
// the full object form so that a reload reproduces s exactly.
func Marshal(s *Snapshot, f Format) ([]byte, error) {
	doc := document{
		MirrorView:     s.MirrorView,
		MirrorControls: s.MirrorControls,
		DebugDraw:      s.DebugDraw,
		Thresholds: thresholdsDocument{
			PinchDist:   s.Thresholds.PinchDist,
			TwoSplitMin: s.Thresholds.TwoSplitMin,
		},
		Assignments: make(map[string]assignmentRecord, gesture.NumKeys),
	}
	for k := gesture.Key(0); k < gesture.NumKeys; k++ {
		d := s.Assignments[k]
		doc.Assignments[k.String()] = assignmentRecord{
			Action:   d.Action.String(),
			Mode:     d.Mode.String(),
			RepeatHz: d.RepeatHz,
			TapMs:    d.TapMs,
		}
	}

	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml settings: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml settings: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json settings: %w", err)
		}
		return append(data, '\n'), nil
	}
}
