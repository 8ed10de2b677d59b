package batch

import (
	"errors"

	"medmatch/internal/classify"
	"medmatch/internal/signature"
)

// Options tune Match. The zero value uses DefaultExclusion and NoResolver.
type Options struct {
	Exclude  ExclusionFilter
	Resolver PathResolver
}

func (o Options) normalized() Options {
	if o.Exclude == nil {
		o.Exclude = DefaultExclusion
	}
	if o.Resolver == nil {
		o.Resolver = NoResolver{}
	}
	return o
}

// Match classifies files against idx and merges matches into a copy of
// existing, overwriting prior paths for the same id.
func Match(files []classify.PickedFile, existing MatchedFileMap, idx *signature.Index, opts Options) Outcome {
	opts = opts.normalized()
	out := Outcome{
		Matched:     existing.Clone(),
		Unsupported: []UnsupportedFile{},
		Decisions:   make([]Decision, 0, len(files)),
	}
	for _, file := range files {
		out.Decisions = append(out.Decisions, matchOne(&out, file, idx, opts))
	}
	return out
}

func matchOne(out *Outcome, file classify.PickedFile, idx *signature.Index, opts Options) Decision {
	res, err := classify.Classify(file, idx)
	d := Decision{File: file, Result: res, Err: err}

	if err != nil {
		reason := ReasonNoMatch
		if errors.Is(err, classify.ErrInvalidInput) {
			reason = ReasonInvalidInput
		}
		return unsupported(out, d, reason)
	}

	if res.Matched() {
		p, rerr := opts.Resolver.Resolve(file)
		if rerr != nil {
			d.Err = rerr
			return unsupported(out, d, ReasonPathUnresolved)
		}
		out.Matched[res.ID] = p
		d.Disposition = DispositionMatched
		d.Path = p
		d.Reason = res.Reason
		return d
	}

	if opts.Exclude(file) {
		out.Excluded++
		d.Disposition = DispositionExcluded
		d.Reason = "excluded"
		return d
	}
	return unsupported(out, d, ReasonNoMatch)
}

func unsupported(out *Outcome, d Decision, reason string) Decision {
	out.Unsupported = append(out.Unsupported, NewUnsupported(d.File, reason))
	d.Disposition = DispositionUnsupported
	d.Reason = reason
	return d
}
