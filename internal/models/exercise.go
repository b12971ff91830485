package models

// ExerciseEntry is one exercise of a session with its ordered sets.
// Set positions are always 1..N in slice order.
type ExerciseEntry struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Sets []SetRecord `json:"sets"`
}

// AppendSet adds a set at the end and assigns its position.
func (e *ExerciseEntry) AppendSet(s SetRecord) SetRecord {
	s.Position = len(e.Sets) + 1
	e.Sets = append(e.Sets, s)
	return s
}

// Set returns a pointer to the set at the 1-based position, or nil.
func (e *ExerciseEntry) Set(position int) *SetRecord {
	if position < 1 || position > len(e.Sets) {
		return nil
	}
	return &e.Sets[position-1]
}

// DeleteSet removes the set at position and renumbers the rest.
// Returns false when the position does not exist.
func (e *ExerciseEntry) DeleteSet(position int) bool {
	if e.Set(position) == nil {
		return false
	}
	e.Sets = append(e.Sets[:position-1], e.Sets[position:]...)
	e.renumber()
	return true
}

func (e *ExerciseEntry) renumber() {
	for i := range e.Sets {
		e.Sets[i].Position = i + 1
	}
}

// Clone returns a deep copy of the entry.
func (e ExerciseEntry) Clone() ExerciseEntry {
	c := ExerciseEntry{ID: e.ID, Name: e.Name, Sets: make([]SetRecord, len(e.Sets))}
	for i, s := range e.Sets {
		c.Sets[i] = s.Clone()
	}
	return c
}

// CloneEntries deep-copies a slice of entries.
func CloneEntries(entries []ExerciseEntry) []ExerciseEntry {
	out := make([]ExerciseEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
