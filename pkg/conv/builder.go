package conv

import (
	"sort"

	"github.com/google/uuid"
)

// Builder is the sole mutator of conversation bodies. It is stateful only
// within a single build session and is not safe for concurrent use; the
// snapshots it produces are.
//
// Two marker policies exist: a live builder flags appended interactions as
// "new" by default so streaming consumers can replay just the delta, while a
// replay builder (reconstructing from persisted state) flags nothing unless
// asked.
type Builder struct {
	interactions []Interaction
	toolFilter   Filter
	ctxFilter    Filter
	jsonSchema   string

	// markers holds candidate new indices in insertion order. They are
	// normalized (de-duplicated, sorted, clamped) at Build time.
	markers []int

	newByDefault  bool
	defaultTurnID string
}

// NewBuilder creates a builder whose appends are flagged new by default.
func NewBuilder() *Builder {
	return &Builder{newByDefault: true}
}

// NewReplayBuilder creates a builder for reconstructing persisted
// conversations: appends are history by default.
func NewReplayBuilder() *Builder {
	return &Builder{newByDefault: false}
}

// From seeds the builder from an existing snapshot, carrying over
// interactions, policy fields, and current new markers.
func From(body Body) *Builder {
	b := NewBuilder()
	b.interactions = body.Interactions()
	b.toolFilter = body.toolFilter
	b.ctxFilter = body.ctxFilter
	b.jsonSchema = body.jsonSchema
	b.markers = body.NewIndexes()
	return b
}

// SetToolFilter sets the tool filter policy.
func (b *Builder) SetToolFilter(f Filter) *Builder {
	b.toolFilter = f
	return b
}

// SetContextFilter sets the context filter policy.
func (b *Builder) SetContextFilter(f Filter) *Builder {
	b.ctxFilter = f
	return b
}

// SetJSONOutputSchema sets the structured-output schema. An empty schema
// clears the JSON output requirement.
func (b *Builder) SetJSONOutputSchema(schema string) *Builder {
	b.jsonSchema = schema
	return b
}

// SetDefaultTurnID sets the turn ID EnsureTurnID assigns to interactions
// lacking one. When unset, EnsureTurnID generates a fresh ID per
// interaction.
func (b *Builder) SetDefaultTurnID(turnID string) *Builder {
	b.defaultTurnID = turnID
	return b
}

// Add appends interactions using the builder's default marker policy.
func (b *Builder) Add(items ...Interaction) *Builder {
	return b.AddMarked(b.newByDefault, items...)
}

// AddRange appends a slice of interactions using the default marker policy.
func (b *Builder) AddRange(items []Interaction) *Builder {
	return b.AddMarked(b.newByDefault, items...)
}

// AddMarked appends interactions with an explicit new flag.
func (b *Builder) AddMarked(isNew bool, items ...Interaction) *Builder {
	for _, item := range items {
		if isNew {
			b.markers = append(b.markers, len(b.interactions))
		}
		b.interactions = append(b.interactions, item)
	}
	return b
}

// ReplaceLast replaces the trailing interaction with the given items using
// the default marker policy. On an empty builder it is a plain append.
func (b *Builder) ReplaceLast(items ...Interaction) *Builder {
	count := 1
	if len(b.interactions) == 0 {
		count = 0
	}
	return b.ReplaceLastRangeMarked(b.newByDefault, count, items)
}

// ReplaceLastRange replaces the trailing count interactions with the given
// items using the default marker policy.
func (b *Builder) ReplaceLastRange(count int, items []Interaction) *Builder {
	return b.ReplaceLastRangeMarked(b.newByDefault, count, items)
}

// ReplaceLastRangeMarked replaces the trailing count interactions with the
// given items, flagging the replacements per isNew.
//
// When count is at least the current length the whole body is reset and
// rebuilt from the replacements. Otherwise only the trailing slice is
// excised and the items appended in place, which supports in-place upsert
// during streaming without losing leading history. Markers referring to
// excised slots are dropped silently.
func (b *Builder) ReplaceLastRangeMarked(isNew bool, count int, items []Interaction) *Builder {
	if count < 0 {
		count = 0
	}
	if count >= len(b.interactions) {
		b.interactions = nil
		b.markers = nil
	} else {
		keep := len(b.interactions) - count
		b.interactions = b.interactions[:keep]
		retained := b.markers[:0]
		for _, m := range b.markers {
			if m < keep {
				retained = append(retained, m)
			}
		}
		b.markers = retained
	}
	return b.AddMarked(isNew, items...)
}

// MarkNew flags the given indices as new in addition to any existing
// markers. Out-of-range indices are dropped at Build time.
func (b *Builder) MarkNew(indexes ...int) *Builder {
	b.markers = append(b.markers, indexes...)
	return b
}

// ClearNewMarkers drops all new markers, turning the pending snapshot into
// pure history.
func (b *Builder) ClearNewMarkers() *Builder {
	b.markers = nil
	return b
}

// EnsureTurnID assigns a turn ID to every interaction lacking one: the
// builder's default turn ID when set, otherwise a freshly generated ID per
// interaction. Interactions that already carry a turn ID are untouched.
func (b *Builder) EnsureTurnID() *Builder {
	for i := range b.interactions {
		if b.interactions[i].TurnID != "" {
			continue
		}
		if b.defaultTurnID != "" {
			b.interactions[i].TurnID = b.defaultTurnID
		} else {
			b.interactions[i].TurnID = NewTurnID()
		}
	}
	return b
}

// Build produces an immutable snapshot. New markers are de-duplicated,
// sorted ascending, and clamped to the valid index range; markers pointing
// at removed slots are dropped silently.
func (b *Builder) Build() Body {
	interactions := make([]Interaction, len(b.interactions))
	copy(interactions, b.interactions)

	seen := make(map[int]struct{}, len(b.markers))
	var markers []int
	for _, m := range b.markers {
		if m < 0 || m >= len(interactions) {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		markers = append(markers, m)
	}
	sort.Ints(markers)

	return Body{
		interactions: interactions,
		toolFilter:   b.toolFilter,
		ctxFilter:    b.ctxFilter,
		jsonSchema:   b.jsonSchema,
		newIndexes:   markers,
	}
}

// NewTurnID generates a fresh turn correlation ID.
func NewTurnID() string {
	return uuid.New().String()
}
