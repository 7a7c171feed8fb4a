package summarizer

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"testing/quick"
	"unicode/utf8"
)

func TestExtractiveSummarizer_Initialize(t *testing.T) {
	summarizer := NewExtractiveSummarizer()
	err := summarizer.Initialize()
	if err != nil {
		t.Errorf("Initialize() error = %v, want nil", err)
	}
}

func TestSummarize_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantSummary   string
		wantOriginal  int
		wantReduction float64
	}{
		{
			name: "repeated key terms",
			text: "Programming languages enable computation. Computation requires careful programming. " +
				"Languages evolve constantly.",
			wantSummary:   "Programming languages enable computation.",
			wantOriginal:  112,
			wantReduction: 63.39,
		},
		{
			name:          "only short words",
			text:          "Hi. Ok. Go.",
			wantSummary:   "Hi.",
			wantOriginal:  11,
			wantReduction: 72.73,
		},
		{
			name:          "single sentence without punctuation",
			text:          "Reading aloud helps",
			wantSummary:   "Reading aloud helps.",
			wantOriginal:  19,
			wantReduction: -5.26,
		},
		{
			name: "key term in third and seventh sentence",
			text: "It is a cat. We go to sea. " +
				"Photosynthesis drives plant growth. " +
				"He saw it. Do it now. Why not try. " +
				"Photosynthesis photosynthesis needs sunlight. " +
				"Go on. Be fun. Ask me.",
			wantSummary: "Photosynthesis photosynthesis needs sunlight. " +
				"Photosynthesis drives plant growth. It is a cat.",
			wantOriginal:  166,
			wantReduction: 43.37,
		},
		{
			name:          "mixed delimiters collapse",
			text:          "Wait!!! Really?! Yes... Indeed indeed.",
			wantSummary:   "Indeed indeed.",
			wantOriginal:  38,
			wantReduction: 63.16,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Summarize(test.text)
			if err != nil {
				t.Fatalf("Summarize() error = %v, want nil", err)
			}

			if got.Summary != test.wantSummary {
				t.Errorf("Summarize() summary = %q, want %q", got.Summary, test.wantSummary)
			}

			if got.OriginalLength != test.wantOriginal {
				t.Errorf("Summarize() originalLength = %d, want %d", got.OriginalLength, test.wantOriginal)
			}

			if got.SummaryLength != utf8.RuneCountInString(test.wantSummary) {
				t.Errorf("Summarize() summaryLength = %d, want %d", got.SummaryLength, utf8.RuneCountInString(test.wantSummary))
			}

			if got.ReductionPercentage != test.wantReduction {
				t.Errorf("Summarize() reductionPercentage = %v, want %v", got.ReductionPercentage, test.wantReduction)
			}
		})
	}
}

func TestSummarize_InvalidInput(t *testing.T) {
	inputs := []string{"", "   ", "...!!!???", "\n\t. ! ?"}

	for _, input := range inputs {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			got, err := Summarize(input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Summarize(%q) error = %v, want ErrInvalidInput", input, err)
			}
			if got != nil {
				t.Errorf("Summarize(%q) = %+v, want nil result", input, got)
			}
		})
	}
}

func TestSummarize_DuplicateSentencesAreDistinct(t *testing.T) {
	sentence := "Voice commands control the reader"
	text := strings.Repeat(sentence+". ", 7)

	got, err := Summarize(text)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	// 7 sentences -> floor(2.1) = 2 entries, both the same text
	want := sentence + ". " + sentence + "."
	if got.Summary != want {
		t.Errorf("Summarize() = %q, want %q", got.Summary, want)
	}
}

func TestSummarize_DoesNotMutateOrShareState(t *testing.T) {
	text := "Alpha beta gamma delta. Delta epsilon alpha. Gamma gamma gamma. Zeta eta theta."

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := Summarize(text)
			if err != nil {
				t.Errorf("Summarize() error = %v", err)
				return
			}
			results[i] = res.Summary
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Errorf("concurrent call %d = %q, want %q", i, results[i], results[0])
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("  One.Two!!  Three?? . !  ")
	want := []string{"One", "Two", "Three"}

	if len(got) != len(want) {
		t.Fatalf("SplitSentences() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitSentences()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTargetSentenceCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 1}, {2, 1}, {3, 1}, {6, 1}, {7, 2}, {10, 3}, {20, 6}, {100, 30},
	}

	for _, test := range tests {
		if got := TargetSentenceCount(test.n); got != test.want {
			t.Errorf("TargetSentenceCount(%d) = %d, want %d", test.n, got, test.want)
		}
	}
}

// wordPool mixes long words, short words and repeated terms so generated
// documents produce a spread of scores and ties.
var wordPool = []string{
	"reader", "voice", "page", "summary", "speech", "text", "language",
	"a", "an", "the", "of", "to", "is", "cat", "dog", "run",
	"Reader", "VOICE", "translate", "chapter",
}

// generateDocument builds a document of distinct sentences joined by ". ".
func generateDocument(seed int64) (string, []string) {
	rng := rand.New(rand.NewSource(seed))
	n := 1 + rng.Intn(25)

	sentences := make([]string, n)
	for i := range sentences {
		words := make([]string, 1+rng.Intn(8))
		for j := range words {
			words[j] = wordPool[rng.Intn(len(wordPool))]
		}
		// a unique short marker keeps sentences distinct without adding score
		sentences[i] = fmt.Sprintf("s%02d %s", i, strings.Join(words, " "))
	}

	return strings.Join(sentences, ". ") + ".", sentences
}

// referenceScores recomputes sentence scores for property checks.
func referenceScores(sentences []string) map[string]int {
	freq := map[string]int{}
	for _, s := range sentences {
		for _, w := range strings.Fields(strings.ToLower(s)) {
			if utf8.RuneCountInString(w) > 3 {
				freq[w]++
			}
		}
	}

	scores := map[string]int{}
	for _, s := range sentences {
		total := 0
		for _, w := range strings.Fields(strings.ToLower(s)) {
			total += freq[w]
		}
		scores[s] = total
	}
	return scores
}

func selectedSentences(summary string) []string {
	return strings.Split(strings.TrimSuffix(summary, "."), ". ")
}

func TestSummarize_Properties(t *testing.T) {
	config := &quick.Config{MaxCount: 300}

	deterministic := func(seed int64) bool {
		text, _ := generateDocument(seed)
		a, errA := Summarize(text)
		b, errB := Summarize(text)
		return errA == nil && errB == nil && *a == *b
	}

	lengthBound := func(seed int64) bool {
		text, sentences := generateDocument(seed)
		res, err := Summarize(text)
		if err != nil {
			return false
		}
		return len(selectedSentences(res.Summary)) == TargetSentenceCount(len(sentences))
	}

	subset := func(seed int64) bool {
		text, sentences := generateDocument(seed)
		res, err := Summarize(text)
		if err != nil {
			return false
		}
		index := map[string]bool{}
		for _, s := range sentences {
			index[s] = true
		}
		for _, s := range selectedSentences(res.Summary) {
			if !index[s] {
				return false
			}
		}
		return true
	}

	stable := func(seed int64) bool {
		text, sentences := generateDocument(seed)
		res, err := Summarize(text)
		if err != nil {
			return false
		}
		scores := referenceScores(sentences)
		position := map[string]int{}
		for i, s := range sentences {
			position[s] = i
		}
		selected := selectedSentences(res.Summary)
		for i := 1; i < len(selected); i++ {
			prev, cur := selected[i-1], selected[i]
			if scores[prev] < scores[cur] {
				return false
			}
			if scores[prev] == scores[cur] && position[prev] > position[cur] {
				return false
			}
		}
		// nothing left out may outrank the lowest selected sentence
		last := selected[len(selected)-1]
		chosen := map[string]bool{}
		for _, s := range selected {
			chosen[s] = true
		}
		for _, s := range sentences {
			if chosen[s] {
				continue
			}
			if scores[s] > scores[last] || (scores[s] == scores[last] && position[s] < position[last]) {
				return false
			}
		}
		return true
	}

	reductionBound := func(seed int64) bool {
		text, _ := generateDocument(seed)
		res, err := Summarize(text)
		if err != nil {
			return false
		}
		return res.SummaryLength <= res.OriginalLength &&
			res.ReductionPercentage >= 0 && res.ReductionPercentage <= 100
	}

	properties := map[string]any{
		"determinism": deterministic,
		"length":      lengthBound,
		"subset":      subset,
		"stability":   stable,
		"reduction":   reductionBound,
	}

	for name, property := range properties {
		t.Run(name, func(t *testing.T) {
			if err := quick.Check(property, config); err != nil {
				t.Error(err)
			}
		})
	}
}
