package model

// Record is one parsed corpus line. Name is only used while compiling.
type Record struct {
	Name  string
	Label string
}

// TrainingExample is a compiled corpus row: one presence flag per vocabulary
// entry plus the icon label the name was tagged with.
type TrainingExample struct {
	Features []bool `msgpack:"features"`
	Label    string `msgpack:"label"`
}

// Artifacts are the immutable lookup tables produced by the corpus compiler.
// Nothing may mutate them once they have been published to a classifier.
type Artifacts struct {
	Variant     string            `msgpack:"variant"`     // "trigram" or "digram"
	Labels      []string          `msgpack:"labels"`      // distinct labels, first-occurrence order
	Vocabulary  []string          `msgpack:"vocabulary"`  // distinct n-grams, first-occurrence order
	Examples    []TrainingExample `msgpack:"examples"`    // training table, corpus order
	Fingerprint string            `msgpack:"fingerprint"` // hex SHA-256 of the source corpus
}
