package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

var (
	seedGenres     = []string{"RPG", "FPS", "Metroidvania", "Visual Novel", "Rogue-lite", "Tactique"}
	seedMoods      = []string{"cyberpunk", "dark fantasy", "onirique", "post-apo", "low-poly coloré"}
	seedKeywords   = []string{"boucle temporelle", "IA rebelle", "vengeance", "mémoire fragmentée", "multivers"}
	seedReferences = []string{"Zelda", "Hollow Knight", "Disco Elysium", "Hades", "Celeste"}
)

// Seeder draws random concept requests for exploration.
// It is safe for concurrent use.
type Seeder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeder uses rng as the random source; nil selects a randomly seeded source.
func NewSeeder(rng *rand.Rand) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{rng: rng}
}

// RandomSeed returns a request with a Proto-NNNN title, one genre, one mood,
// two distinct keywords and one reference.
func (s *Seeder) RandomSeed() Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	perm := s.rng.Perm(len(seedKeywords))
	keywords := []string{seedKeywords[perm[0]], seedKeywords[perm[1]]}

	return Request{
		Title:      fmt.Sprintf("Proto-%d", 1000+s.rng.IntN(9000)),
		Genre:      pick(s.rng, seedGenres),
		Mood:       pick(s.rng, seedMoods),
		Keywords:   strings.Join(keywords, ", "),
		References: pick(s.rng, seedReferences),
	}
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}
