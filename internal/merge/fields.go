package merge

import (
	"github.com/openkin/arbor/internal/store"
)

// fieldDef adapts one mergeable member field to a uniform nullable view.
// Required string columns report nil when empty; gender reports nil for
// "unknown" so an explicit value always beats the default.
type fieldDef struct {
	name string
	get  func(*store.Member) *string
	set  func(*store.Member, *string)
}

func strField(name string, get func(*store.Member) *string, set func(*store.Member, string)) fieldDef {
	return fieldDef{
		name: name,
		get: func(m *store.Member) *string {
			v := get(m)
			if v == nil || *v == "" {
				return nil
			}
			return v
		},
		set: func(m *store.Member, v *string) {
			if v != nil {
				set(m, *v)
			}
		},
	}
}

func ptrField(name string, get func(*store.Member) **string) fieldDef {
	return fieldDef{
		name: name,
		get: func(m *store.Member) *string {
			p := *get(m)
			if p == nil || *p == "" {
				return nil
			}
			return p
		},
		set: func(m *store.Member, v *string) {
			*get(m) = v
		},
	}
}

var mergeFields = []fieldDef{
	strField("first_name", func(m *store.Member) *string { return &m.FirstName }, func(m *store.Member, v string) { m.FirstName = v }),
	ptrField("middle_name", func(m *store.Member) **string { return &m.MiddleName }),
	strField("last_name", func(m *store.Member) *string { return &m.LastName }, func(m *store.Member, v string) { m.LastName = v }),
	ptrField("nickname", func(m *store.Member) **string { return &m.Nickname }),
	{
		name: "gender",
		get: func(m *store.Member) *string {
			if m.Gender == "" || m.Gender == "unknown" {
				return nil
			}
			return &m.Gender
		},
		set: func(m *store.Member, v *string) {
			if v != nil {
				m.Gender = *v
			}
		},
	},
	ptrField("birth_date", func(m *store.Member) **string { return &m.BirthDate }),
	ptrField("birth_place", func(m *store.Member) **string { return &m.BirthPlace }),
	ptrField("death_date", func(m *store.Member) **string { return &m.DeathDate }),
	ptrField("death_place", func(m *store.Member) **string { return &m.DeathPlace }),
	ptrField("bio", func(m *store.Member) **string { return &m.Bio }),
	ptrField("profile_media_id", func(m *store.Member) **string { return &m.ProfileMediaID }),
	ptrField("linked_account_id", func(m *store.Member) **string { return &m.LinkedAccountID }),
}

// fieldConflicts flags fields where both members carry different non-null
// values. Null-vs-value is not a conflict; the value simply wins.
func fieldConflicts(source, target *store.Member) []FieldConflict {
	var conflicts []FieldConflict
	for _, f := range mergeFields {
		s, t := f.get(source), f.get(target)
		if s != nil && t != nil && *s != *t {
			conflicts = append(conflicts, FieldConflict{Field: f.name, Source: *s, Target: *t})
		}
	}
	return conflicts
}

// resolveFields computes the merged member. Per field: an explicit
// fields-from-source entry wins, else prefer-source takes the source's
// non-null value, else the target's non-null value is kept with the source
// as fallback. Diverging bios are concatenated with an attribution separator
// instead of dropping either side.
func resolveFields(source, target *store.Member, opts Options) *store.Member {
	merged := *target

	fromSource := make(map[string]bool, len(opts.FieldsFromSource))
	for _, name := range opts.FieldsFromSource {
		fromSource[name] = true
	}

	for _, f := range mergeFields {
		s, t := f.get(source), f.get(target)

		var v *string
		switch {
		case fromSource[f.name]:
			v = s
			if v == nil {
				v = t
			}
		case f.name == "bio" && s != nil && t != nil && *s != *t:
			combined := *t + "\n\n--- merged from " + source.FullName() + " ---\n\n" + *s
			v = &combined
		case opts.PreferSource && s != nil:
			v = s
		case t != nil:
			v = t
		default:
			v = s
		}
		f.set(&merged, v)
	}
	return &merged
}
