// Package apply performs hunk application: locating a hunk in its target,
// replacing the located span with the other side's text, and batch-applying
// whole documents under a two-phase commit so that a multi-hunk patch never
// leaves a target partially written.
package apply

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/locate"
	"go.uber.org/zap"
)

// Applier applies hunks to target files through a FileStore.
type Applier struct {
	store diffedit.FileStore
	loc   *locate.Locator
	log   *zap.Logger
}

// New creates an Applier. A nil logger disables logging.
func New(store diffedit.FileStore, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{store: store, loc: locate.New(), log: log}
}

// Apply applies (or, with reverse, reverse-applies) a single hunk to text
// and returns the resulting text. It never touches the store. A hunk whose
// other side is already in place is a no-op reported as already applied,
// unless force is set, in which case the found text is flipped back (the
// undo the caller explicitly asked for). Location failure is a status, not
// an error; errors report malformed hunks only.
func (a *Applier) Apply(h *diffedit.Hunk, target, text string, reverse, force bool) (string, *diffedit.ApplyResult, error) {
	res := &diffedit.ApplyResult{Target: target}

	loc, err := a.loc.Locate(h, target, text, !reverse, reverse)
	if errors.Is(err, diffedit.ErrNotFound) {
		res.Status = diffedit.StatusNotFound
		return text, res, nil
	}
	if err != nil {
		res.Status = diffedit.StatusMalformed
		return text, res, err
	}
	res.LineOffset = loc.LineOffset
	res.Fuzzy = loc.Fuzzy

	if loc.Switched != reverse && !force {
		// Applying: new text already there. Reverse-applying: old text
		// still there. Either way there is nothing to do.
		res.Status = diffedit.StatusAlreadyApplied
		return text, res, nil
	}

	repl := loc.NewText
	if loc.Switched {
		repl = loc.OldText
	}
	res.Status = diffedit.StatusApplied
	a.log.Debug("hunk applied",
		zap.String("target", target),
		zap.Int("line_offset", loc.LineOffset),
		zap.Bool("fuzzy", loc.Fuzzy),
		zap.Bool("switched", loc.Switched))
	return text[:loc.Span.Start] + repl + text[loc.Span.End:], res, nil
}

// Test locates a hunk without mutating anything; a dry-run Apply.
func (a *Applier) Test(h *diffedit.Hunk, target, text string, reverse bool) *diffedit.ApplyResult {
	res := &diffedit.ApplyResult{Target: target}
	loc, err := a.loc.Locate(h, target, text, !reverse, reverse)
	switch {
	case errors.Is(err, diffedit.ErrNotFound):
		res.Status = diffedit.StatusNotFound
	case err != nil:
		res.Status = diffedit.StatusMalformed
	case loc.Switched != reverse:
		res.Status = diffedit.StatusAlreadyApplied
		res.LineOffset = loc.LineOffset
		res.Fuzzy = loc.Fuzzy
	default:
		res.Status = diffedit.StatusApplied
		res.LineOffset = loc.LineOffset
		res.Fuzzy = loc.Fuzzy
	}
	return res
}

// ApplyFile applies one hunk of a section through the store, persisting the
// result. When the section's new side is the null device and the hunk is not
// switched, the target file is removed instead of edited.
func (a *Applier) ApplyFile(sec *diffedit.FileSection, h *diffedit.Hunk, reverse, force bool) (*diffedit.ApplyResult, error) {
	target := sec.TargetPath()
	text, err := a.store.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}

	if sec.IsDelete && !reverse {
		res := a.Test(h, target, text, reverse)
		if res.Status == diffedit.StatusApplied {
			if err := a.store.Remove(target); err != nil {
				return res, fmt.Errorf("remove %s: %w", target, err)
			}
			res.Deleted = true
			a.log.Info("target removed", zap.String("target", target))
		}
		return res, nil
	}

	out, res, err := a.Apply(h, target, text, reverse, force)
	if err != nil {
		return res, err
	}
	if res.Status == diffedit.StatusApplied {
		if err := a.store.Save(target, out); err != nil {
			return res, fmt.Errorf("save %s: %w", target, err)
		}
	}
	return res, nil
}

// ApplyAll applies every hunk of doc in document order under a two-phase
// commit. The first pass only locates, accumulating planned edits per
// target; if any hunk fails to locate (or is already applied), no target is
// mutated and the failure count is reported. Only a fully clean plan is
// committed, per target, and persisted through the store.
func (a *Applier) ApplyAll(doc *diffedit.Document, reverse bool) (*diffedit.BatchResult, error) {
	batch := &diffedit.BatchResult{}

	type targetPlan struct {
		text   string
		edits  []diffedit.PlannedEdit
		remove bool
	}
	plans := make(map[string]*targetPlan)
	var order []string

	// Phase one: locate everything, mutate nothing.
	for si := range doc.Sections {
		sec := &doc.Sections[si]
		if len(sec.Hunks) == 0 {
			continue
		}
		target := sec.TargetPath()
		plan, ok := plans[target]
		if !ok {
			text, err := a.store.Open(target)
			if err != nil {
				a.log.Warn("target unreadable", zap.String("target", target), zap.Error(err))
				batch.Failures += len(sec.Hunks)
				for range sec.Hunks {
					batch.Results = append(batch.Results, diffedit.ApplyResult{
						Status: diffedit.StatusNotFound, Target: target,
					})
				}
				continue
			}
			plan = &targetPlan{text: text}
			plans[target] = plan
			order = append(order, target)
		}
		plan.remove = plan.remove || (sec.IsDelete && !reverse)

		for hi := range sec.Hunks {
			h := &sec.Hunks[hi]
			res := diffedit.ApplyResult{Target: target}
			loc, err := a.loc.Locate(h, target, plan.text, !reverse, reverse)
			switch {
			case errors.Is(err, diffedit.ErrNotFound):
				res.Status = diffedit.StatusNotFound
				batch.Failures++
			case err != nil:
				res.Status = diffedit.StatusMalformed
				batch.Failures++
			case loc.Switched != reverse:
				res.Status = diffedit.StatusAlreadyApplied
				res.LineOffset = loc.LineOffset
				batch.Failures++
			default:
				res.Status = diffedit.StatusApplied
				res.LineOffset = loc.LineOffset
				res.Fuzzy = loc.Fuzzy
				repl := loc.NewText
				if loc.Switched {
					repl = loc.OldText
				}
				plan.edits = append(plan.edits, diffedit.PlannedEdit{
					Target:      target,
					Span:        loc.Span,
					Replacement: repl,
				})
			}
			batch.Results = append(batch.Results, res)
		}
	}

	if batch.Failures > 0 {
		a.log.Warn("batch aborted, no targets changed",
			zap.Int("failures", batch.Failures))
		return batch, nil
	}

	// Phase two: commit each target's edits in one sweep, then persist.
	var errs []error
	for _, target := range order {
		plan := plans[target]
		if plan.remove {
			if err := a.store.Remove(target); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", target, err))
				continue
			}
			batch.Touched = append(batch.Touched, target)
			continue
		}
		text := commit(plan.text, plan.edits)
		if err := a.store.Save(target, text); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", target, err))
			continue
		}
		batch.Touched = append(batch.Touched, target)
		a.log.Info("target patched",
			zap.String("target", target),
			zap.Int("hunks", len(plan.edits)))
	}
	return batch, errors.Join(errs...)
}

// commit applies planned edits to text. Edits are applied in descending span
// order so earlier replacements cannot shift later spans.
func commit(text string, edits []diffedit.PlannedEdit) string {
	sorted := make([]diffedit.PlannedEdit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Span.Start > sorted[j].Span.Start
	})
	for _, e := range sorted {
		text = text[:e.Span.Start] + e.Replacement + text[e.Span.End:]
	}
	return text
}
