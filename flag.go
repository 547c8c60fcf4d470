package filewatch

import "sort"

// flagName binds one symbolic event-kind name to its platform notification
// bits. The per-platform flagNames table is sorted by name and immutable
// for the process lifetime; encodeFlags depends on the ordering for binary
// search.
type flagName struct {
	name string
	mask uint32
}

// encodeFlags folds symbolic names into a platform bitmask. Any name
// missing from the table fails with *UnknownFlagError; an empty name list
// encodes to zero.
func encodeFlags(names ...string) (uint32, error) {
	var mask uint32
	for _, name := range names {
		i := sort.Search(len(flagNames), func(i int) bool {
			return flagNames[i].name >= name
		})
		if i == len(flagNames) || flagNames[i].name != name {
			return 0, &UnknownFlagError{Flag: name}
		}
		mask |= flagNames[i].mask
	}
	return mask, nil
}

// decodeMask gives every symbolic name whose flag bits are fully contained
// in mask. Multiple names can match a single record; each match contributes
// one name, there is no notion of a best match.
func decodeMask(mask uint32) []string {
	if mask == 0 {
		return nil
	}
	var kinds []string
	for _, fn := range flagNames {
		if mask&fn.mask == fn.mask {
			kinds = append(kinds, fn.name)
		}
	}
	return kinds
}
