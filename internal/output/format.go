package output

import "github.com/crimson-sun/iconclass/internal/model"

// FormatPrediction returns a copy of p prepared for writing. Scores are
// diagnostic and are dropped unless verbose is set.
func FormatPrediction(p model.Prediction, verbose bool) model.Prediction {
	if !verbose {
		p.Scores = nil
	}
	if p.Labels == nil {
		p.Labels = []string{}
	}
	return p
}
