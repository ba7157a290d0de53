// Package annotate implements sample navigation for an annotation session:
// stepping back and forth through samples pulled from a data source, labeling
// the current one, and saving. Position changes are persisted so a restarted
// session resumes where it stopped.
package annotate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/datasource"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/state"
)

var (
	// ErrFirstSample is returned by Prev at the first sample.
	ErrFirstSample = errors.New("annotate: this is the first image, no previous sample")
	// ErrExhausted is returned by Next once the data source has no more items.
	ErrExhausted = errors.New("annotate: no more images in the data source")
	// ErrNoSample is returned when an operation needs a current sample.
	ErrNoSample = errors.New("annotate: no sample loaded")
)

// Store holds the samples of the session. *session.Session satisfies it.
type Store interface {
	Add(id, imagePath string, annotation *string) error
	Get(id string) (*string, error)
	Set(id string, annotation *string) error
	Contains(id string) bool
	ImagePath(id string) (string, error)
	AnnotatedCount() int
	Save() (int, error)
}

// Sample is the sample at the current position.
type Sample struct {
	Index      int
	ID         string
	ImagePath  string
	Annotation *string
}

// Options configures an Annotator.
type Options struct {
	StatePath string // empty = position is not persisted
	Logger    *zap.Logger
	Now       func() time.Time
}

// Annotator tracks the position within the session's samples.
type Annotator struct {
	store     Store
	src       datasource.Source
	statePath string
	log       *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	st        state.State
	lastSaved time.Time
}

// New creates an Annotator. When a state file exists, the samples it lists
// are restored into store through src (if src is a datasource.Resolver);
// samples that can no longer be found are dropped.
func New(store Store, src datasource.Source, opts Options) (*Annotator, error) {
	a := &Annotator{
		store:     store,
		src:       src,
		statePath: opts.StatePath,
		log:       opts.Logger,
		now:       opts.Now,
		st:        state.Initial(),
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.statePath == "" {
		return a, nil
	}

	st, err := state.Load(a.statePath)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	if err := a.restore(st); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Annotator) restore(st state.State) error {
	resolver, _ := a.src.(datasource.Resolver)

	ids := make([]string, 0, len(st.IDList))
	for _, id := range st.IDList {
		if a.store.Contains(id) {
			ids = append(ids, id)
			continue
		}
		if resolver == nil {
			continue
		}
		item, ok, err := resolver.Resolve(id)
		if err != nil {
			return fmt.Errorf("annotate: restore %q: %w", id, err)
		}
		if !ok {
			a.log.Warn("sample from saved state not found", zap.String("id", id))
			continue
		}
		if err := a.store.Add(item.ID, item.Path, item.Annotation); err != nil {
			return fmt.Errorf("annotate: restore %q: %w", id, err)
		}
		ids = append(ids, id)
	}

	if len(ids) != len(st.IDList) {
		// The list shrank, so the recorded end no longer holds.
		st.MaxLength = nil
	}
	st.IDList = ids
	if st.PositionID >= len(ids) {
		st.PositionID = len(ids) - 1
	}
	a.st = st
	a.log.Info("position restored",
		zap.Int("position", st.PositionID),
		zap.Int("samples", len(ids)))
	return nil
}

// Position returns the current index, -1 before the first sample.
func (a *Annotator) Position() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.PositionID
}

// Len returns the number of samples pulled so far.
func (a *Annotator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.st.IDList)
}

// MaxLength returns the total sample count once the source is exhausted.
func (a *Annotator) MaxLength() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.st.MaxLength == nil {
		return 0, false
	}
	return *a.st.MaxLength, true
}

// CanPrev reports whether Prev can succeed.
func (a *Annotator) CanPrev() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.PositionID > 0
}

// CanNext reports whether Next may yield another sample.
func (a *Annotator) CanNext() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.MaxLength == nil || a.st.PositionID < *a.st.MaxLength-1
}

// CanSave reports whether a sample has been shown.
func (a *Annotator) CanSave() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.PositionID >= 0
}

// Current returns the sample at the current position.
func (a *Annotator) Current() (Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current()
}

func (a *Annotator) current() (Sample, error) {
	idx := a.st.PositionID
	if idx < 0 || idx >= len(a.st.IDList) {
		return Sample{}, ErrNoSample
	}
	id := a.st.IDList[idx]
	ann, err := a.store.Get(id)
	if err != nil {
		return Sample{}, fmt.Errorf("annotate: %w", err)
	}
	path, err := a.store.ImagePath(id)
	if err != nil {
		return Sample{}, fmt.Errorf("annotate: %w", err)
	}
	return Sample{Index: idx, ID: id, ImagePath: path, Annotation: ann}, nil
}

// Prev moves to the previous sample.
func (a *Annotator) Prev() (Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.st.PositionID <= 0 {
		return Sample{}, ErrFirstSample
	}
	a.st.PositionID--
	a.persist()
	return a.current()
}

// Next moves to the next sample, pulling a new one from the data source when
// the position passes the end of the loaded samples. When the source is
// exhausted the position is unchanged, the total is recorded and ErrExhausted
// is returned.
func (a *Annotator) Next() (Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.st.PositionID + 1
	if idx >= len(a.st.IDList) {
		item, ok, err := a.src.Next()
		if err != nil {
			return Sample{}, fmt.Errorf("annotate: next item: %w", err)
		}
		if !ok {
			n := len(a.st.IDList)
			a.st.MaxLength = &n
			a.persist()
			a.log.Info("data source exhausted", zap.Int("samples", n))
			return Sample{}, ErrExhausted
		}
		if err := a.store.Add(item.ID, item.Path, item.Annotation); err != nil {
			return Sample{}, fmt.Errorf("annotate: add %q: %w", item.ID, err)
		}
		a.st.IDList = append(a.st.IDList, item.ID)
		a.log.Debug("sample loaded", zap.Int("index", idx), zap.String("id", item.ID))
	}
	a.st.PositionID = idx
	a.persist()
	return a.current()
}

// Annotate sets the current sample's annotation; nil clears it.
func (a *Annotator) Annotate(annotation *string) (Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur, err := a.current()
	if err != nil {
		return Sample{}, err
	}
	return a.set(cur, annotation)
}

// Toggle sets label on the current sample, or clears it when the sample
// already carries label.
func (a *Annotator) Toggle(label string) (Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur, err := a.current()
	if err != nil {
		return Sample{}, err
	}
	if cur.Annotation != nil && *cur.Annotation == label {
		return a.set(cur, nil)
	}
	return a.set(cur, &label)
}

func (a *Annotator) set(cur Sample, annotation *string) (Sample, error) {
	if err := a.store.Set(cur.ID, annotation); err != nil {
		return Sample{}, fmt.Errorf("annotate: %w", err)
	}
	cur.Annotation = annotation
	return cur, nil
}

// AnnotatedCount returns the number of annotated samples in the session.
func (a *Annotator) AnnotatedCount() int {
	return a.store.AnnotatedCount()
}

// Save writes the session's annotated samples and returns how many were saved.
func (a *Annotator) Save() (int, error) {
	n, err := a.store.Save()
	if err != nil {
		return 0, fmt.Errorf("annotate: %w", err)
	}
	a.mu.Lock()
	a.lastSaved = a.now()
	a.mu.Unlock()
	a.log.Info("annotations saved", zap.Int("count", n))
	return n, nil
}

// LastSaved returns when Save last succeeded; zero if never.
func (a *Annotator) LastSaved() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSaved
}

// persist writes the position state. Failures are logged, not returned.
func (a *Annotator) persist() {
	if a.statePath == "" {
		return
	}
	if err := state.Save(a.statePath, a.st); err != nil {
		a.log.Warn("persist position state", zap.String("path", a.statePath), zap.Error(err))
	}
}
