package pipelines

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"
)

var ErrNoPlan = errors.New("no plan to resume from")

type PlanEntry struct {
	Id      string `yaml:"id"`
	Display bool   `yaml:"display"`
	Preview bool   `yaml:"preview"`
}

func (e *PlanEntry) Complete() bool {
	return e != nil && e.Display && e.Preview
}

// Plan records the identifier and upload progress of every source image so an
// interrupted run can be resumed without re-uploading or renaming anything.
type Plan struct {
	path string
	lock sync.Mutex

	// album name -> source file name -> entry
	Albums map[string]map[string]*PlanEntry `yaml:"albums"`
}

func NewPlan(path string) *Plan {
	return &Plan{path: path, Albums: make(map[string]map[string]*PlanEntry)}
}

// LoadPlan reads the plan at path. A missing file is an empty plan.
func LoadPlan(path string) (*Plan, error) {
	p := NewPlan(path)
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, err
	}
	if err = yaml.Unmarshal(b, p); err != nil {
		return nil, err
	}
	if p.Albums == nil {
		p.Albums = make(map[string]map[string]*PlanEntry)
	}
	return p, nil
}

// ResumePlan loads the plan of an interrupted run. Unlike LoadPlan, a missing
// file is ErrNoPlan.
func ResumePlan(path string) (*Plan, error) {
	if path == "" {
		return nil, ErrNoPlan
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPlan, path)
		}
		return nil, err
	}
	p, err := LoadPlan(path)
	if err != nil {
		return nil, fmt.Errorf("error loading plan: %w", err)
	}
	return p, nil
}

func (p *Plan) Lookup(album string, source string) *PlanEntry {
	p.lock.Lock()
	defer p.lock.Unlock()
	if a, ok := p.Albums[album]; ok {
		if e, ok := a[source]; ok {
			c := *e
			return &c
		}
	}
	return nil
}

func (p *Plan) Record(album string, source string, entry PlanEntry) {
	p.lock.Lock()
	defer p.lock.Unlock()
	a, ok := p.Albums[album]
	if !ok {
		a = make(map[string]*PlanEntry)
		p.Albums[album] = a
	}
	a[source] = &entry
}

// Ids returns the identifiers already assigned within an album.
func (p *Plan) Ids(album string) []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	ids := make([]string, 0, len(p.Albums[album]))
	for _, e := range p.Albums[album] {
		ids = append(ids, e.Id)
	}
	return ids
}

// Save writes the plan atomically. A plan without a path lives in memory only.
func (p *Plan) Save() error {
	if p.path == "" {
		return nil
	}
	p.lock.Lock()
	b, err := yaml.Marshal(p)
	p.lock.Unlock()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".plan-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

func (p *Plan) Remove() error {
	if p.path == "" {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
