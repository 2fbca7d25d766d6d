package wishlist

import "github.com/stylehub/storefront/storefront/internal/domain"

// transition is the optimistic result of a mutation and the action that
// undoes it if the remote call fails. compensate is applied to whatever the
// state is at failure time, not to the state the mutation started from.
type transition struct {
	next       []domain.WishlistEntry
	compensate func([]domain.WishlistEntry) []domain.WishlistEntry
}

func identity(entries []domain.WishlistEntry) []domain.WishlistEntry { return entries }

func indexOf(entries []domain.WishlistEntry, productID string) int {
	for i, e := range entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

// reduceAdd inserts entry at the head unless the product is already listed.
func reduceAdd(entries []domain.WishlistEntry, entry domain.WishlistEntry) transition {
	if indexOf(entries, entry.ProductID) >= 0 {
		return transition{next: entries, compensate: identity}
	}

	next := make([]domain.WishlistEntry, 0, len(entries)+1)
	next = append(next, entry)
	next = append(next, entries...)

	return transition{
		next: next,
		compensate: func(cur []domain.WishlistEntry) []domain.WishlistEntry {
			out := make([]domain.WishlistEntry, 0, len(cur))
			for _, e := range cur {
				if e.ID != entry.ID {
					out = append(out, e)
				}
			}
			return out
		},
	}
}

// reduceRemove drops the product. The compensation puts the entry back at
// its prior position.
func reduceRemove(entries []domain.WishlistEntry, productID string) transition {
	idx := indexOf(entries, productID)
	if idx < 0 {
		return transition{next: entries, compensate: identity}
	}

	removed := entries[idx]
	next := make([]domain.WishlistEntry, 0, len(entries)-1)
	next = append(next, entries[:idx]...)
	next = append(next, entries[idx+1:]...)

	return transition{
		next: next,
		compensate: func(cur []domain.WishlistEntry) []domain.WishlistEntry {
			if indexOf(cur, productID) >= 0 {
				return cur
			}
			pos := idx
			if pos > len(cur) {
				pos = len(cur)
			}
			out := make([]domain.WishlistEntry, 0, len(cur)+1)
			out = append(out, cur[:pos]...)
			out = append(out, removed)
			out = append(out, cur[pos:]...)
			return out
		},
	}
}

// reduceClear empties the list; failure restores the full snapshot.
func reduceClear(entries []domain.WishlistEntry) transition {
	snapshot := make([]domain.WishlistEntry, len(entries))
	copy(snapshot, entries)

	return transition{
		next: []domain.WishlistEntry{},
		compensate: func([]domain.WishlistEntry) []domain.WishlistEntry {
			return snapshot
		},
	}
}
