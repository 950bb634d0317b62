package generator

import (
	"hash/fnv"
	"math"
	"strings"

	"biblos/internal/store"
)

// matrixBase holds per-category base values for the nine-matrix
type matrixBase struct {
	emotional   float64
	theological float64
	sensory     float64
}

var categoryMatrixValues = map[string]matrixBase{
	store.CategoryPentateuch:     {0.55, 0.75, 0.65},
	store.CategoryGospel:         {0.70, 0.85, 0.75},
	store.CategoryPoetic:         {0.80, 0.60, 0.70},
	store.CategoryMajorProphet:   {0.75, 0.80, 0.70},
	store.CategoryMinorProphet:   {0.70, 0.75, 0.65},
	store.CategoryHistorical:     {0.50, 0.55, 0.55},
	store.CategoryPauline:        {0.45, 0.90, 0.35},
	store.CategoryGeneralEpistle: {0.50, 0.80, 0.40},
	store.CategoryApocalyptic:    {0.85, 0.90, 0.90},
	store.CategoryActs:           {0.60, 0.70, 0.60},
	store.CategoryDeuterocanon:   {0.55, 0.65, 0.55},
}

var categoryRegisters = map[string]string{
	store.CategoryApocalyptic:    "elevated-liturgical",
	store.CategoryPoetic:         "elevated-poetic",
	store.CategoryPauline:        "instructional-theological",
	store.CategoryGeneralEpistle: "instructional-pastoral",
	store.CategoryGospel:         "narrative-testimonial",
	store.CategoryHistorical:     "narrative-historical",
	store.CategoryPentateuch:     "narrative-covenantal",
	store.CategoryMajorProphet:   "prophetic-oracular",
	store.CategoryMinorProphet:   "prophetic-condensed",
	store.CategoryActs:           "narrative-missional",
	store.CategoryDeuterocanon:   "wisdom-historical",
}

var breathPatterns = []string{"sustained", "punctuated", "flowing", "staccato", "measured"}

func baseFor(category string) matrixBase {
	if b, ok := categoryMatrixValues[category]; ok {
		return b
	}
	return categoryMatrixValues[store.CategoryHistorical]
}

func emotionalValence(v *store.Verse) float64 {
	base := baseFor(v.Category).emotional
	verseMod := float64(v.VerseNumber%5) * 0.02
	chapterMod := float64(v.Chapter%10) * 0.01
	return clamp(base+verseMod+chapterMod-0.05, 0, 1)
}

func theologicalWeight(v *store.Verse) float64 {
	base := baseFor(v.Category).theological

	// Divine-name density nudges weight upward
	text := strings.ToLower(v.Text)
	for _, w := range []string{"lord", "god", "christ", "spirit", "covenant"} {
		if strings.Contains(text, w) {
			base = math.Min(1.0, base+0.05)
		}
	}
	return round2(base)
}

func sensoryIntensity(v *store.Verse) float64 {
	return baseFor(v.Category).sensory
}

func narrativeFunction(verseNumber int) string {
	switch {
	case verseNumber <= 3:
		return "scene-setting"
	case verseNumber <= 8:
		return "exposition"
	case verseNumber <= 15:
		return "development"
	case verseNumber <= 20:
		return "intensification"
	case verseNumber <= 25:
		return "climax"
	default:
		return "resolution"
	}
}

func breathRhythm(verseNumber int) string {
	return breathPatterns[verseNumber%len(breathPatterns)]
}

func register(category string) string {
	if r, ok := categoryRegisters[category]; ok {
		return r
	}
	return "narrative-standard"
}

func grammaticalComplexity(verseNumber int) float64 {
	return round2(0.5 + float64(verseNumber%3)*0.1)
}

// lexicalRarity derives a stable pseudo-value from the reference so
// repeated runs produce identical output.
func lexicalRarity(ref string) float64 {
	h := fnv.New32a()
	h.Write([]byte(ref))
	return round2(0.3 + float64(h.Sum32()%40)/100)
}

// Tonal analysis word lists
var (
	joyWords    = []string{"rejoice", "praise", "blessed", "glory", "love", "peace", "joy", "glad"}
	terrorWords = []string{"death", "destroy", "wrath", "judgment", "curse", "plague", "fear", "perish"}
	heavyWords  = []string{"death", "judgment", "wrath", "curse", "destroy", "perish"}
)

func nativeMood(text string) string {
	if text == "" {
		return "neutral/expository"
	}

	lower := strings.ToLower(text)
	joy := countMatches(lower, joyWords)
	terror := countMatches(lower, terrorWords)

	switch {
	case joy > terror:
		return "joyful/celebratory"
	case terror > joy:
		return "fearful/solemn"
	default:
		return "neutral/expository"
	}
}

func tonalWeight(text string) string {
	if text == "" {
		return "neutral"
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "crucified", "death", "slaughter", "destroy", "perish"):
		return "heavy"
	case containsAny(lower, "resurrection", "glory", "throne", "heaven", "eternal"):
		return "transcendent"
	case containsAny(lower, "rejoice", "praise", "blessed", "joy", "glad"):
		return "light"
	case containsAny(lower, "warning", "flee", "fear", "tremble", "beware"):
		return "unsettling"
	default:
		return "neutral"
	}
}

const (
	baseDreadLevel        = 0.3
	maxDreadAmplification = 0.9
)

func dreadAmplification(text string) float64 {
	lower := strings.ToLower(text)
	amp := baseDreadLevel + float64(countMatches(lower, heavyWords))*0.1
	return round2(math.Min(maxDreadAmplification, amp))
}

func countMatches(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return round2(math.Max(lo, math.Min(hi, v)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
