package honeypot

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
)

// Entity is one fake catalog item. Content derives entirely from the entity
// ID, so the same external URL always renders byte-identical content with
// no backing row anywhere.
type Entity struct {
	ID          string   `json:"entity_id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	SKU         string   `json:"sku"`
	PriceCents  int64    `json:"price_cents"`
	Rating      float64  `json:"rating"`
	Stock       int      `json:"stock"`
	Description string   `json:"description"`
	Related     []string `json:"related"` // algorithmic cross-links, unbounded graph
	Trap        Trap     `json:"trap"`    // embedded trap for this page
}

const (
	relatedPerEntity = 4

	// trapSalt decorrelates trap nonces from entity seeds.
	trapSalt = 0x5ca1ab1e0ddba11
)

// Generator produces unbounded fake catalog content. It holds no per-visit
// state: memory cost is O(1) no matter how deep a crawler goes.
type Generator struct {
	secret []byte
	inst   *Instrumenter
}

func NewGenerator(secret string) *Generator {
	return &Generator{
		secret: []byte(secret),
		inst:   NewInstrumenter(secret),
	}
}

// Instrumenter exposes the trap minter sharing this generator's secret.
func (g *Generator) Instrumenter() *Instrumenter { return g.inst }

// seedFor maps an external opaque ID to a generator seed. Well-formed IDs
// (16 hex chars) carry their seed directly, which is what lets listings
// construct IDs with a chosen category; anything else hashes down, so
// arbitrary IDs still render a stable page instead of a 404 a crawler could
// use to map the maze's edge.
func (g *Generator) seedFor(entityID string) uint64 {
	if len(entityID) == 16 {
		if n, err := strconv.ParseUint(entityID, 16, 64); err == nil {
			return n
		}
	}
	h := fnv.New64a()
	_, _ = h.Write(g.secret)
	_, _ = h.Write([]byte(entityID))
	return h.Sum64()
}

func categoryFor(seed uint64) string {
	return categories[seed%uint64(len(categories))]
}

// alignSeed adjusts a seed so its derived category is the one at catIdx.
func alignSeed(seed uint64, catIdx int) uint64 {
	l := uint64(len(categories))
	return seed - seed%l + uint64(catIdx)
}

// splitmix64 is the standard seed mixer; consecutive inputs yield
// well-distributed outputs.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func formatID(seed uint64) string {
	return fmt.Sprintf("%016x", seed)
}

// GenerateEntity renders the catalog item for an opaque ID. Calling it
// twice with the same ID returns identical content.
func (g *Generator) GenerateEntity(entityID string) Entity {
	seed := g.seedFor(entityID)
	rng := rand.New(rand.NewSource(int64(seed)))

	category := categoryFor(seed)
	adjective := adjectives[rng.Intn(len(adjectives))]
	material := materials[rng.Intn(len(materials))]
	noun := nouns[rng.Intn(len(nouns))]
	name := fmt.Sprintf("%s %s %s", adjective, material, noun)

	description := fmt.Sprintf(descriptionOpeners[rng.Intn(len(descriptionOpeners))], name) +
		" " + fmt.Sprintf(descriptionMiddles[rng.Intn(len(descriptionMiddles))], material) +
		" " + descriptionClosers[rng.Intn(len(descriptionClosers))]

	e := Entity{
		ID:          formatID(seed),
		Name:        name,
		Brand:       brands[rng.Intn(len(brands))],
		Category:    category,
		SKU:         fmt.Sprintf("%s-%05d", category[:2], rng.Intn(100000)),
		PriceCents:  int64(499 + rng.Intn(99500)),
		Rating:      float64(rng.Intn(21)+30) / 10, // 3.0 .. 5.0
		Stock:       rng.Intn(500),
		Description: description,
	}

	// Cross-links are derived, never stored: the graph is unbounded and may
	// contain cycles, which is exactly what keeps a crawler inside.
	for i := 0; i < relatedPerEntity; i++ {
		e.Related = append(e.Related, formatID(splitmix64(seed+uint64(i)+1)))
	}

	// Deterministic trap so the page stays byte-identical.
	kinds := []Kind{KindHiddenField, KindChallenge}
	e.Trap = g.inst.Mint(kinds[seed%2], formatID(splitmix64(seed^trapSalt)))

	return e
}
