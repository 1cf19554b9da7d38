package intent

// Refined takes the kind from Primary and borrows target and parameters from
// Extractor, but only when both strategies agree on the kind.
type Refined struct {
	Primary   Classifier
	Extractor Classifier
}

// DefaultClassifier is the canonical runtime strategy: keyword kind,
// pattern-captured target.
func DefaultClassifier() *Refined {
	return &Refined{
		Primary:   KeywordClassifier{},
		Extractor: DefaultPatternClassifier(),
	}
}

func (r *Refined) Classify(u Utterance) Intent {
	in := r.Primary.Classify(u)
	if r.Extractor == nil {
		return in
	}

	ex := r.Extractor.Classify(u)
	if ex.Kind != in.Kind {
		return in
	}

	in.Target, in.HasTarget = ex.Target, ex.HasTarget
	if in.Parameters == nil && ex.Parameters != nil {
		in.Parameters = ex.Parameters
	}
	return in
}
