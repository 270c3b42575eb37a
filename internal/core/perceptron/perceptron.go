package perceptron

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"ner-pipeline/internal/core/types"
	"ner-pipeline/pkg/api"
)

const (
	defaultTag = "O"

	// Number of leading embedding dimensions turned into the signature feature.
	signatureBits = 16

	// A word is tagged from the tag dictionary when it was seen at least
	// tagDictMinCount times with the same tag at least tagDictMinShare of the time.
	tagDictMinCount = 20
	tagDictMinShare = 0.97
)

type Params struct {
	Epochs           int
	WordEmbeddingDim int
	CharEmbeddingDim int
	Dropout          float64
	Seed             int64
}

type preprocessor struct {
	Tags       []string
	TagDict    map[string]string
	Signatures map[string]string
}

// Tagger is a greedy averaged perceptron sequence tagger. Predict is safe for
// concurrent use once training is done.
type Tagger struct {
	weights map[string]map[string]float64
	params  Params
	prep    preprocessor

	// accumulators for weight averaging, only used while training
	totals map[string]map[string]float64
	stamps map[string]map[string]int
	step   int
}

func New() *Tagger {
	return &Tagger{
		weights: map[string]map[string]float64{},
		prep: preprocessor{
			TagDict:    map[string]string{},
			Signatures: map[string]string{},
		},
	}
}

func signature(vector []float64) string {
	n := min(signatureBits, len(vector))
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		if vector[i] >= 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func shape(word string) string {
	var b strings.Builder
	var last rune
	for _, r := range word {
		var c rune
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLower(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		default:
			c = r
		}
		if c != last {
			b.WriteRune(c)
			last = c
		}
	}
	return b.String()
}

func normalize(word string) string {
	isDigits := word != ""
	for _, r := range word {
		if !unicode.IsDigit(r) {
			isDigits = false
			break
		}
	}
	switch {
	case isDigits && len(word) == 4:
		return "!YEAR"
	case isDigits:
		return "!DIGITS"
	}
	return strings.ToLower(word)
}

func suffix(word string, n int) string {
	r := []rune(word)
	return string(r[max(0, len(r)-n):])
}

func prefix(word string, n int) string {
	r := []rune(word)
	return string(r[:min(n, len(r))])
}

func (t *Tagger) features(i int, word string, context []string, prev, prev2 string) []string {
	// context is padded with two start and two end markers
	i += 2
	feats := []string{
		"bias",
		"i suffix " + suffix(word, 3),
		"i pref1 " + prefix(word, 1),
		"i shape " + shape(word),
		"i-1 tag " + prev,
		"i-2 tag " + prev2,
		"i tag+i-2 tag " + prev + " " + prev2,
		"i word " + context[i],
		"i-1 tag+i word " + prev + " " + context[i],
		"i-1 word " + context[i-1],
		"i-1 suffix " + suffix(context[i-1], 3),
		"i-2 word " + context[i-2],
		"i+1 word " + context[i+1],
		"i+1 suffix " + suffix(context[i+1], 3),
		"i+2 word " + context[i+2],
	}
	if sig, ok := t.prep.Signatures[word]; ok {
		feats = append(feats, "i emb "+sig)
	} else if sig, ok := t.prep.Signatures[strings.ToLower(word)]; ok {
		feats = append(feats, "i emb "+sig)
	}
	return feats
}

func buildContext(tokens []string) []string {
	context := make([]string, 0, len(tokens)+4)
	context = append(context, "-START-", "-START2-")
	for _, w := range tokens {
		context = append(context, normalize(w))
	}
	return append(context, "-END-", "-END2-")
}

func (t *Tagger) score(feats []string) string {
	scores := map[string]float64{}
	for _, f := range feats {
		for tag, w := range t.weights[f] {
			scores[tag] += w
		}
	}

	best, bestScore := "", 0.0
	for _, tag := range t.prep.Tags {
		if s := scores[tag]; best == "" || s > bestScore {
			best, bestScore = tag, s
		}
	}
	if best == "" {
		return defaultTag
	}
	return best
}

func (t *Tagger) tagSentence(tokens []string) []string {
	context := buildContext(tokens)
	out := make([]string, len(tokens))

	prev, prev2 := "-START-", "-START2-"
	for i, word := range tokens {
		tag, ok := t.prep.TagDict[word]
		if !ok {
			tag = t.score(t.features(i, word, context, prev, prev2))
		}
		out[i] = tag
		prev2, prev = prev, tag
	}
	return out
}

func (t *Tagger) Predict(sentences [][]string) ([][]string, error) {
	out := make([][]string, len(sentences))
	for i, s := range sentences {
		out[i] = t.tagSentence(s)
	}
	return out, nil
}

func (t *Tagger) update(truth, guess string, feats []string) {
	t.step++
	if truth == guess {
		return
	}
	for _, f := range feats {
		t.updateFeature(f, truth, 1)
		t.updateFeature(f, guess, -1)
	}
}

func (t *Tagger) updateFeature(feat, tag string, delta float64) {
	if t.weights[feat] == nil {
		t.weights[feat] = map[string]float64{}
		t.totals[feat] = map[string]float64{}
		t.stamps[feat] = map[string]int{}
	}
	w := t.weights[feat][tag]
	t.totals[feat][tag] += float64(t.step-t.stamps[feat][tag]) * w
	t.stamps[feat][tag] = t.step
	t.weights[feat][tag] = w + delta
}

func (t *Tagger) averageWeights() {
	for feat, tagWeights := range t.weights {
		for tag, w := range tagWeights {
			total := t.totals[feat][tag] + float64(t.step-t.stamps[feat][tag])*w
			avg := total / float64(max(t.step, 1))
			if avg == 0 {
				delete(tagWeights, tag)
			} else {
				tagWeights[tag] = avg
			}
		}
		if len(tagWeights) == 0 {
			delete(t.weights, feat)
		}
	}
	t.totals, t.stamps = nil, nil
}

func (t *Tagger) buildTagDict(samples []api.Sample) {
	counts := map[string]map[string]int{}
	tags := map[string]struct{}{}
	for _, s := range samples {
		for i, word := range s.Tokens {
			if counts[word] == nil {
				counts[word] = map[string]int{}
			}
			counts[word][s.Labels[i]]++
			tags[s.Labels[i]] = struct{}{}
		}
	}

	for word, tagCounts := range counts {
		total, bestTag, bestCount := 0, "", 0
		for tag, c := range tagCounts {
			total += c
			if c > bestCount || (c == bestCount && tag < bestTag) {
				bestTag, bestCount = tag, c
			}
		}
		if total >= tagDictMinCount && float64(bestCount)/float64(total) >= tagDictMinShare {
			t.prep.TagDict[word] = bestTag
		}
	}

	t.prep.Tags = make([]string, 0, len(tags))
	for tag := range tags {
		t.prep.Tags = append(t.prep.Tags, tag)
	}
	sort.Strings(t.prep.Tags)
}

func (t *Tagger) buildSignatures(embeddings types.Embeddings) {
	for word, vector := range embeddings {
		t.prep.Signatures[word] = signature(vector)
	}
}

func checkAligned(kind string, samples []api.Sample) error {
	for i, s := range samples {
		if len(s.Tokens) != len(s.Labels) {
			return fmt.Errorf("%s sample %d has %d tokens and %d labels", kind, i, len(s.Tokens), len(s.Labels))
		}
	}
	return nil
}

func accuracy(t *Tagger, samples []api.Sample) float64 {
	correct, total := 0, 0
	for _, s := range samples {
		for i, tag := range t.tagSentence(s.Tokens) {
			if tag == s.Labels[i] {
				correct++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// Fit trains the tagger for opts.Epochs passes over the shuffled training samples.
// Validation accuracy is logged after every epoch; it does not affect training.
func (t *Tagger) Fit(train, valid []api.Sample, opts types.FitOptions) error {
	if err := checkAligned("training", train); err != nil {
		return err
	}
	if err := checkAligned("validation", valid); err != nil {
		return err
	}
	if opts.Epochs < 1 {
		return fmt.Errorf("invalid number of epochs %d", opts.Epochs)
	}
	if opts.Dropout < 0 || opts.Dropout >= 1 {
		return fmt.Errorf("invalid dropout %v, must be in [0, 1)", opts.Dropout)
	}

	t.params = Params{
		Epochs:           opts.Epochs,
		WordEmbeddingDim: opts.WordEmbeddingDim,
		CharEmbeddingDim: opts.CharEmbeddingDim,
		Dropout:          opts.Dropout,
		Seed:             opts.Seed,
	}
	t.prep = preprocessor{TagDict: map[string]string{}, Signatures: map[string]string{}}
	t.weights = map[string]map[string]float64{}
	t.totals = map[string]map[string]float64{}
	t.stamps = map[string]map[string]int{}
	t.step = 0

	t.buildTagDict(train)
	t.buildSignatures(opts.Embeddings)

	rng := rand.New(rand.NewSource(opts.Seed))
	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		correct, total := 0, 0
		for _, idx := range order {
			sample := train[idx]
			context := buildContext(sample.Tokens)
			prev, prev2 := "-START-", "-START2-"

			for i, word := range sample.Tokens {
				guess, ok := t.prep.TagDict[word]
				if !ok {
					feats := t.features(i, word, context, prev, prev2)
					guess = t.score(feats)
					t.update(sample.Labels[i], guess, dropFeatures(rng, feats, opts.Dropout))
				}
				if guess == sample.Labels[i] {
					correct++
				}
				total++
				prev2, prev = prev, guess
			}
		}

		slog.Info("finished epoch", "epoch", epoch, "train_accuracy", float64(correct)/float64(max(total, 1)), "valid_accuracy", accuracy(t, valid))
	}

	t.averageWeights()

	return nil
}

func dropFeatures(rng *rand.Rand, feats []string, rate float64) []string {
	if rate == 0 {
		return feats
	}
	kept := feats[:1:1] // bias is always kept
	for _, f := range feats[1:] {
		if rng.Float64() >= rate {
			kept = append(kept, f)
		}
	}
	return kept
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (t *Tagger) Save(paths types.ModelPaths) error {
	if err := writeJSON(paths.Weights, t.weights); err != nil {
		return err
	}
	if err := writeJSON(paths.Params, t.params); err != nil {
		return err
	}
	return writeJSON(paths.Preprocessor, t.prep)
}

func Load(paths types.ModelPaths) (*Tagger, error) {
	t := New()
	if err := readJSON(paths.Weights, &t.weights); err != nil {
		return nil, err
	}
	if err := readJSON(paths.Params, &t.params); err != nil {
		return nil, err
	}
	if err := readJSON(paths.Preprocessor, &t.prep); err != nil {
		return nil, err
	}
	if t.prep.TagDict == nil {
		t.prep.TagDict = map[string]string{}
	}
	if t.prep.Signatures == nil {
		t.prep.Signatures = map[string]string{}
	}
	return t, nil
}

func (t *Tagger) Params() Params {
	return t.params
}

func (t *Tagger) Tags() []string {
	return t.prep.Tags
}

func (t *Tagger) Release() {}
