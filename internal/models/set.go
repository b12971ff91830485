package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// BodyweightSentinel is the weight recorded for a bodyweight set.
// It contributes zero to volume.
const BodyweightSentinel = -1.0

// ErrInvalidPayload is returned when a set payload violates its construction rules.
var ErrInvalidPayload = errors.New("invalid set payload")

// SetKind tags the payload carried by a SetRecord.
type SetKind string

const (
	KindPlain    SetKind = "plain"
	KindSuperset SetKind = "superset"
	KindDropset  SetKind = "dropset"
)

// Payload is the kind-specific part of a set. Exactly one payload is
// attached to a set; the concrete types are Plain, Superset and Dropset.
type Payload interface {
	Kind() SetKind
	isPayload()
}

// Plain is a regular set with no extra payload.
type Plain struct{}

func (Plain) Kind() SetKind { return KindPlain }
func (Plain) isPayload()    {}

// Superset pairs the set with a partner exercise performed back to back.
type Superset struct {
	PartnerName   string  `json:"partner_name"`
	PartnerWeight float64 `json:"partner_weight"`
	PartnerReps   int     `json:"partner_reps"`
}

func (Superset) Kind() SetKind { return KindSuperset }
func (Superset) isPayload()    {}

// NewSuperset builds a superset payload. The partner name is required.
func NewSuperset(partner string, weight float64, reps int) (Superset, error) {
	partner = strings.TrimSpace(partner)
	if partner == "" {
		return Superset{}, fmt.Errorf("%w: superset requires a partner exercise", ErrInvalidPayload)
	}
	return Superset{PartnerName: partner, PartnerWeight: weight, PartnerReps: reps}, nil
}

// DropEntry is one reduced-weight drop of a dropset.
type DropEntry struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// Dropset carries the ordered drops that follow the main set.
type Dropset struct {
	Drops []DropEntry `json:"drops"`
}

func (Dropset) Kind() SetKind { return KindDropset }
func (Dropset) isPayload()    {}

// NewDropset builds a dropset payload. At least one drop is required.
func NewDropset(drops []DropEntry) (Dropset, error) {
	if len(drops) == 0 {
		return Dropset{}, fmt.Errorf("%w: dropset requires at least one drop", ErrInvalidPayload)
	}
	return Dropset{Drops: append([]DropEntry(nil), drops...)}, nil
}

// SuggestDrop proposes the next drop from the previous weight and reps:
// 75% of the weight rounded to the nearest 0.5, reps carried over.
func SuggestDrop(prevWeight float64, prevReps int) DropEntry {
	return DropEntry{Weight: roundHalf(prevWeight * 0.75), Reps: prevReps}
}

// SuggestDrops proposes n successive drops starting from the parent set.
func SuggestDrops(parentWeight float64, parentReps, n int) []DropEntry {
	drops := make([]DropEntry, 0, n)
	w, r := parentWeight, parentReps
	for range n {
		d := SuggestDrop(w, r)
		drops = append(drops, d)
		w, r = d.Weight, d.Reps
	}
	return drops
}

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// SetRecord is one logged or pending set of an exercise.
type SetRecord struct {
	Position  int
	Weight    float64
	Reps      int
	Completed bool
	RPE       *int
	Payload   Payload
}

// Kind returns the payload kind, treating a nil payload as plain.
func (s SetRecord) Kind() SetKind {
	if s.Payload == nil {
		return KindPlain
	}
	return s.Payload.Kind()
}

// IsBodyweight reports whether the set uses the bodyweight sentinel.
func (s SetRecord) IsBodyweight() bool {
	return s.Weight == BodyweightSentinel
}

// Loggable reports whether the set has enough data to be persisted as completed.
func (s SetRecord) Loggable() bool {
	if s.Reps > 0 && (s.Weight > 0 || s.IsBodyweight()) {
		return true
	}
	if d, ok := s.Payload.(Dropset); ok {
		for _, drop := range d.Drops {
			if drop.Weight > 0 && drop.Reps > 0 {
				return true
			}
		}
	}
	return false
}

// Volume returns weight × reps for the set itself. Bodyweight sets count zero.
func (s SetRecord) Volume() float64 {
	if s.IsBodyweight() || s.Weight <= 0 {
		return 0
	}
	return s.Weight * float64(s.Reps)
}

// PayloadVolume returns the volume carried by the superset partner or the drops.
func (s SetRecord) PayloadVolume() float64 {
	switch p := s.Payload.(type) {
	case Superset:
		if p.PartnerWeight > 0 {
			return p.PartnerWeight * float64(p.PartnerReps)
		}
	case Dropset:
		var v float64
		for _, d := range p.Drops {
			if d.Weight > 0 {
				v += d.Weight * float64(d.Reps)
			}
		}
		return v
	}
	return 0
}

// Clone returns a deep copy of the set.
func (s SetRecord) Clone() SetRecord {
	c := s
	if s.RPE != nil {
		v := *s.RPE
		c.RPE = &v
	}
	if d, ok := s.Payload.(Dropset); ok {
		c.Payload = Dropset{Drops: append([]DropEntry(nil), d.Drops...)}
	}
	return c
}

// setJSON is the wire form of SetRecord with the payload tagged by kind.
type setJSON struct {
	Position  int       `json:"position"`
	Weight    float64   `json:"weight"`
	Reps      int       `json:"reps"`
	Completed bool      `json:"completed"`
	RPE       *int      `json:"rpe,omitempty"`
	Kind      SetKind   `json:"kind"`
	Superset  *Superset `json:"superset,omitempty"`
	Dropset   *Dropset  `json:"dropset,omitempty"`
}

// MarshalJSON encodes the payload as a kind tag plus the matching object.
func (s SetRecord) MarshalJSON() ([]byte, error) {
	w := setJSON{
		Position:  s.Position,
		Weight:    s.Weight,
		Reps:      s.Reps,
		Completed: s.Completed,
		RPE:       s.RPE,
		Kind:      s.Kind(),
	}
	switch p := s.Payload.(type) {
	case Superset:
		w.Superset = &p
	case Dropset:
		w.Dropset = &p
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the tagged form, rejecting payloads that do not match the kind.
func (s *SetRecord) UnmarshalJSON(data []byte) error {
	var w setJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = SetRecord{
		Position:  w.Position,
		Weight:    w.Weight,
		Reps:      w.Reps,
		Completed: w.Completed,
		RPE:       w.RPE,
	}
	switch w.Kind {
	case KindPlain, "":
		s.Payload = Plain{}
	case KindSuperset:
		if w.Superset == nil {
			return fmt.Errorf("%w: superset kind without superset data", ErrInvalidPayload)
		}
		p, err := NewSuperset(w.Superset.PartnerName, w.Superset.PartnerWeight, w.Superset.PartnerReps)
		if err != nil {
			return err
		}
		s.Payload = p
	case KindDropset:
		if w.Dropset == nil {
			return fmt.Errorf("%w: dropset kind without drops", ErrInvalidPayload)
		}
		p, err := NewDropset(w.Dropset.Drops)
		if err != nil {
			return err
		}
		s.Payload = p
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, w.Kind)
	}
	return nil
}
