// Package iconclass picks icon identifiers for short free-text names using a
// naive Bayes classifier over character n-grams.
//
// Quick start:
//
//	c, err := iconclass.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(c.Classify("Bus stop")) // [directions_bus]
//
// By default the classifier is compiled from the built-in corpus. Supply your
// own with WithCorpus or WithCorpusFile, or load tables produced by
// `iconclass compile` with WithArtifactFile.
//
// A Classifier is immutable and safe for concurrent use. Create once, reuse
// across requests.
package iconclass
