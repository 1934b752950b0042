package quiz

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/victornm/grammarquiz/internal/bank"
	"github.com/victornm/grammarquiz/internal/domain"
)

const (
	DefaultTopicCount = 25
	DefaultPerTopic   = 2
)

// Source is the randomness used for shuffling. *rand.Rand satisfies it.
type Source interface {
	Shuffle(n int, swap func(i, j int))
}

// NewSource returns a ChaCha8 generator seeded from crypto/rand.
func NewSource() *rand.Rand {
	var seed [32]byte
	_, _ = cryptorand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// Sampler draws balanced quizzes from a bank. It is safe for concurrent use.
type Sampler struct {
	mu   sync.Mutex
	rand Source
}

// NewSampler creates a sampler. A nil source uses NewSource.
func NewSampler(src Source) *Sampler {
	if src == nil {
		src = NewSource()
	}
	return &Sampler{rand: src}
}

// Sample picks up to perTopic questions from each topic 1..topicCount and
// interleaves them in random order. Topics with fewer questions contribute
// what they have. Answer order inside each question is shuffled as well.
//
// The returned questions keep their answer keys: they are meant for the
// session store, and callers expose them through domain.Question.Public.
func (s *Sampler) Sample(b *bank.Bank, topicCount, perTopic int) []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	picked := make([]domain.Question, 0, topicCount*perTopic)
	for n := 1; n <= topicCount; n++ {
		qs := b.Topic(n)
		if len(qs) == 0 {
			continue
		}

		s.rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		picked = append(picked, qs[:min(perTopic, len(qs))]...)
	}

	s.rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	for i := range picked {
		answers := slices.Clone(picked[i].Answers)
		s.rand.Shuffle(len(answers), func(x, y int) { answers[x], answers[y] = answers[y], answers[x] })
		picked[i].Answers = answers
	}

	return picked
}
