package corpus

import (
	"bytes"
	_ "embed"
)

//go:embed data/icons.txt
var builtin []byte

// Default returns the corpus that ships with the binary.
func Default() []byte {
	return bytes.Clone(builtin)
}

// ReadDefault parses the built-in corpus.
func ReadDefault() (Corpus, error) {
	return Read(bytes.NewReader(builtin))
}
