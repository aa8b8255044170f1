package honeypot

import (
	"hash/fnv"
	"strconv"
)

const (
	listingPageSize  = 12
	trapLinksPerPage = 3

	// Trap pages sit far beyond any reachable pagination depth.
	trapPageFloor = 1_000_000_000
)

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Category string `json:"category,omitempty"`
}

// TrapLink is a pagination link no legitimate client is ever shown: its
// page number is out of range by construction, so following it is
// unambiguous crawler evidence.
type TrapLink struct {
	Page  int64  `json:"page"`
	Token string `json:"token"` // signed trap ID to report on follow
}

// Listing is one generated catalog page. Listings never terminate: NextPage
// is always present and trap links point arbitrarily deep.
type Listing struct {
	Filter    Filter     `json:"filter"`
	Page      int        `json:"page"`
	Items     []Entity   `json:"items"`
	NextPage  int        `json:"next_page"`
	TrapLinks []TrapLink `json:"trap_links"`
}

// GenerateListing renders page N of the catalog under a filter. Output is
// deterministic per (filter, page) and generated fresh per call in O(1)
// memory regardless of how many pages have been visited.
func (g *Generator) GenerateListing(filter Filter, page int) Listing {
	if page < 1 {
		page = 1
	}

	base := g.listingSeed(filter, page)

	catIdx := -1
	if filter.Category != "" {
		for i, c := range categories {
			if c == filter.Category {
				catIdx = i
				break
			}
		}
	}

	l := Listing{
		Filter:   filter,
		Page:     page,
		NextPage: page + 1,
	}

	for i := 0; i < listingPageSize; i++ {
		seed := splitmix64(base + uint64(i))
		if catIdx >= 0 {
			seed = alignSeed(seed, catIdx)
		}
		l.Items = append(l.Items, g.GenerateEntity(formatID(seed)))
	}

	for i := 0; i < trapLinksPerPage; i++ {
		mixed := splitmix64(base ^ (trapSalt + uint64(i)))
		trap := g.inst.Mint(KindLink, formatID(mixed))
		l.TrapLinks = append(l.TrapLinks, TrapLink{
			// Offset from the requested page so the link stays out of
			// range no matter how deep the crawler already is.
			Page:  int64(page) + trapPageFloor + int64(mixed%trapPageFloor),
			Token: trap.ID,
		})
	}

	return l
}

func (g *Generator) listingSeed(filter Filter, page int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(g.secret)
	_, _ = h.Write([]byte("listing|"))
	_, _ = h.Write([]byte(filter.Category))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(strconv.Itoa(page)))
	return h.Sum64()
}
