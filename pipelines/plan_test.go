package pipelines

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	p := NewPlan(path)
	p.Record("italy", "photo1.jpg", PlanEntry{Id: "0123456789abcdef", Display: true, Preview: true})
	p.Record("italy", "photo2.png", PlanEntry{Id: "fedcba9876543210", Display: true})
	assert.NoError(t, p.Save())

	loaded, err := LoadPlan(path)
	assert.NoError(t, err)
	assert.True(t, loaded.Lookup("italy", "photo1.jpg").Complete())
	partial := loaded.Lookup("italy", "photo2.png")
	assert.False(t, partial.Complete())
	assert.Equal(t, "fedcba9876543210", partial.Id)
	assert.ElementsMatch(t, []string{"0123456789abcdef", "fedcba9876543210"}, loaded.Ids("italy"))
	assert.Nil(t, loaded.Lookup("spain", "photo1.jpg"))

	assert.NoError(t, loaded.Remove())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, loaded.Remove())
}

func TestLoadMissingPlan(t *testing.T) {
	p, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Empty(t, p.Albums)
	assert.Nil(t, p.Lookup("italy", "photo1.jpg"))
	assert.False(t, p.Lookup("italy", "photo1.jpg").Complete())
}

func TestLookupReturnsCopy(t *testing.T) {
	p := NewPlan("")
	p.Record("italy", "a.jpg", PlanEntry{Id: "1"})
	e := p.Lookup("italy", "a.jpg")
	e.Display = true
	assert.False(t, p.Lookup("italy", "a.jpg").Display)
	assert.NoError(t, p.Save())
}

func TestResumePlanRequiresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	_, err := ResumePlan(path)
	assert.True(t, errors.Is(err, ErrNoPlan))
	_, err = ResumePlan("")
	assert.True(t, errors.Is(err, ErrNoPlan))

	p := NewPlan(path)
	p.Record("italy", "a.jpg", PlanEntry{Id: "0123456789abcdef", Display: true})
	assert.NoError(t, p.Save())
	loaded, err := ResumePlan(path)
	assert.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", loaded.Lookup("italy", "a.jpg").Id)
}
