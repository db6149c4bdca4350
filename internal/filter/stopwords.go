package filter

// defaultStopWords is the single shared stop-word list for the survey domain:
// conversational filler, unit-of-measure nouns, and generic jobsite adjectives
// that would dominate matching without discriminating intent. Declared once
// and injected into every extraction path so the lists cannot diverge.
var defaultStopWords = []string{
	// Verbs and common spoken-Italian filler.
	"sono", "circa", "tutta", "tutte", "tutti", "dalle", "dalla", "della",
	"delle", "dello", "degli", "nella", "nelle", "nello", "negli", "come",
	"fare", "fatto", "piano", "zona", "anche", "quindi", "sopra", "sotto",
	"oltre", "senza", "hanno", "abbiamo", "quest", "quell", "perche",
	"dobbiamo", "essere", "sempre", "allora", "siamo", "nell", "facciamo",
	"guarda", "ecco", "dove", "quando", "quanto", "quello", "quella",
	"diciamo", "partiamo", "passiamo", "invece", "magari", "forse", "almeno",
	"calcola", "aggiungi", "metti",
	// Units of measure and generic jobsite words that pollute the search.
	"metri", "quadri", "cubi", "lineari", "centimetri", "spessore", "altezza",
	"lunghezza", "larghezza", "totali", "totale", "relativo", "nuovo",
	"vecchio", "esistente",
}

// DefaultStopWords returns a copy of the built-in Italian survey stop-word
// list. Callers may append their own entries (config extra_stop_words) without
// affecting the shared default.
func DefaultStopWords() []string {
	out := make([]string, len(defaultStopWords))
	copy(out, defaultStopWords)
	return out
}
