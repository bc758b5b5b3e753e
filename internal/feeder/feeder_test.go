package feeder

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestNewBenchmark(t *testing.T) {
	f := NewBenchmark(1)
	require.Len(t, f.Nodes, NodeCount)
	require.NoError(t, f.Validate())

	active, reactive := f.TotalLoad()
	assert.Equal(t, 3715.0, active)
	assert.Equal(t, 2300.0, reactive)

	n, ok := f.Node(30)
	require.True(t, ok)
	assert.Equal(t, 200.0, n.ActiveMean)
	assert.Equal(t, 600.0, n.ReactiveMean)
	assert.InDelta(t, 60.0, n.ReactiveSd, 1e-9)
	assert.Equal(t, 29, n.In)
	assert.Equal(t, []int{31}, n.Out)
	assert.Equal(t, 1.0, n.Voltage)

	root, _ := f.Node(1)
	assert.Zero(t, root.In)
	assert.Zero(t, root.ActiveSd)

	_, ok = f.Node(34)
	assert.False(t, ok)
}

func TestNewBenchmark_NodesAreIndependent(t *testing.T) {
	a := NewBenchmark(1)
	b := NewBenchmark(2)
	a.Nodes[1].Out[0] = 99
	assert.Equal(t, 3, b.Nodes[1].Out[0])
	assert.Equal(t, 2, b.Nodes[5].TestCase)
}

func TestValidate_Broken(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Feeder)
	}{
		{"second root", func(f *Feeder) { f.Nodes[17].In = 0 }},
		{"missing back link", func(f *Feeder) { f.Nodes[2].Out = []int{4} }},
		{"unknown parent", func(f *Feeder) { f.Nodes[32].In = 40 }},
		{"child points elsewhere", func(f *Feeder) { f.Nodes[17].Out = []int{25} }},
		{"no root", func(f *Feeder) { f.Nodes[0].In = 33; f.Nodes[32].Out = []int{1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewBenchmark(1)
			tt.mutate(f)
			assert.ErrorIs(t, f.Validate(), ErrInvalidTopology)
		})
	}
}

func TestCase1(t *testing.T) {
	f := Case1()
	assert.Equal(t, 1, f.Case)

	pv := f.DERNodes(DERPV)
	require.Len(t, pv, 15)
	assert.Equal(t, 19, pv[0])
	assert.Equal(t, 33, pv[14])
	assert.Empty(t, f.DERNodes(DERWind))
	assert.Equal(t, []DERKind{DERPV}, f.Kinds())
}

func TestBuildCases_Counts(t *testing.T) {
	cases := BuildCases(DefaultSeed)
	require.Len(t, cases, 3)

	for i, f := range cases {
		assert.Equal(t, i+1, f.Case)
		assert.NoError(t, f.Validate())
	}

	c2 := cases[1].Summary()
	assert.Equal(t, 10, c2[DERPV])
	assert.Equal(t, 5, c2[DERWind])
	assert.Equal(t, 18, c2[DERNone])

	c3 := cases[2].Summary()
	assert.Equal(t, 21, c3[DERPV])
	assert.Equal(t, 11, c3[DERWind])
	assert.Equal(t, 1, c3[DERNone])
}

func TestBuildCases_Reproducible(t *testing.T) {
	a := BuildCases(DefaultSeed)
	b := BuildCases(DefaultSeed)
	for i := range a {
		assert.Equal(t, a[i].DERNodes(DERPV), b[i].DERNodes(DERPV))
		assert.Equal(t, a[i].DERNodes(DERWind), b[i].DERNodes(DERWind))
	}
}

func TestAddDER(t *testing.T) {
	f := NewBenchmark(1)
	require.NoError(t, f.AddDER(0, DERWind))
	assert.Equal(t, []int{1}, f.DERNodes(DERWind))
	assert.Error(t, f.AddDER(33, DERPV))
}

func TestSampleLoads(t *testing.T) {
	f := NewBenchmark(1)
	rng := rand.New(rand.NewPCG(7, 0))

	var node25 []float64
	for i := 0; i < 2000; i++ {
		loads := f.SampleLoads(rng)
		require.Len(t, loads, NodeCount)
		assert.Zero(t, loads[0].Active, "root carries no load")
		assert.GreaterOrEqual(t, loads[24].Reactive, 0.0)
		node25 = append(node25, loads[24].Active)
	}
	assert.InDelta(t, 420.0, stat.Mean(node25, nil), 3)
	assert.InDelta(t, 42.0, stat.StdDev(node25, nil), 3)
}

func TestSampleLoads_Seeded(t *testing.T) {
	f := NewBenchmark(1)
	a := f.SampleLoads(rand.New(rand.NewPCG(1, 0)))
	b := f.SampleLoads(rand.New(rand.NewPCG(1, 0)))
	assert.Equal(t, a, b)
}
