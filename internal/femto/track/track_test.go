package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const protonMass = 938.272

func TestNewTrackDerivedKinematics(t *testing.T) {
	t.Parallel()

	tr := NewTrack(TrackParams{ID: 7, System: SubsystemTOF, Charge: 1, Px: 300, Py: 400, Pz: 1200, E: 1600, Sector: 2, Beta: 0.8})

	assert.Equal(t, 7, tr.ID())
	assert.Equal(t, SubsystemTOF, tr.System())
	assert.Equal(t, 1, tr.Charge())
	assert.Equal(t, 2, tr.Sector())
	assert.InDelta(t, 500, tr.Pt(), 1e-9)
	assert.InDelta(t, 1300, tr.P(), 1e-9)
	assert.InDelta(t, 0.5*math.Log(2800.0/400.0), tr.Rapidity(), 1e-9)
	assert.InDelta(t, math.Atan2(500, 1200)*180/math.Pi, tr.Theta(), 1e-9)
	assert.InDelta(t, math.Atan2(400, 300)*180/math.Pi, tr.Phi(), 1e-9)
	assert.False(t, tr.HasTruth())
}

func TestPhiIsWrappedToPositiveRange(t *testing.T) {
	t.Parallel()

	tr := NewTrack(TrackParams{Px: 0, Py: -100, Pz: 100, E: 1000})
	assert.InDelta(t, 270, tr.Phi(), 1e-9)

	tr = NewTrack(TrackParams{Px: -100, Py: 0, Pz: 500, E: 600})
	assert.InDelta(t, 180, tr.Phi(), 1e-9)
}

func TestZeroTransverseMomentum(t *testing.T) {
	t.Parallel()

	tr := NewTrack(TrackParams{Pz: 500, E: 600})
	assert.Zero(t, tr.Pt())
	assert.Zero(t, tr.Phi())
	assert.Zero(t, tr.Theta())
}

func TestMasslessAlongBeamHasNoRapidity(t *testing.T) {
	t.Parallel()

	tr := NewTrack(TrackParams{Pz: 500, E: 500})
	assert.False(t, math.IsInf(tr.Rapidity(), 0))
	assert.Zero(t, tr.Rapidity())
}

func TestNewTrackCopiesHits(t *testing.T) {
	t.Parallel()

	var params TrackParams
	params.Wires[0] = []int{10, 11}
	params.Wires[5] = []int{42}
	params.Cells = []int{3}

	tr := NewTrack(params)
	params.Wires[0][0] = 99
	params.Cells[0] = 99

	assert.Equal(t, []int{10, 11}, tr.Wires(0))
	assert.Equal(t, []int{42}, tr.Wires(5))
	assert.Nil(t, tr.Wires(1))
	assert.Nil(t, tr.Wires(-1))
	assert.Nil(t, tr.Wires(NumLayers))
	assert.Equal(t, []int{3}, tr.Cells())
	assert.Equal(t, 2, tr.FiredLayers())
}

func TestFromPolar(t *testing.T) {
	t.Parallel()

	px, py, pz, e := FromPolar(1000, 90, 90, protonMass)
	assert.InDelta(t, 0, px, 1e-9)
	assert.InDelta(t, 1000, py, 1e-9)
	assert.InDelta(t, 0, pz, 1e-9)
	assert.InDelta(t, math.Sqrt(1000*1000+protonMass*protonMass), e, 1e-9)

	tr := NewTrack(TrackParams{Px: px, Py: py, Pz: pz, E: e})
	assert.InDelta(t, 90, tr.Theta(), 1e-9)
	assert.InDelta(t, 90, tr.Phi(), 1e-9)
	assert.InDelta(t, 1000, tr.P(), 1e-9)
}

func TestTruthAssociation(t *testing.T) {
	t.Parallel()

	truth := NewTrack(TrackParams{ID: 1, Px: 100, Pz: 400, E: 1100})
	reco := NewTrack(TrackParams{ID: 2, Px: 101, Pz: 398, E: 1099, Truth: truth})
	require.True(t, reco.HasTruth())
	assert.Same(t, truth, reco.Truth())
}

func TestParseSubsystem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Subsystem
		wantErr bool
	}{
		{"rpc", SubsystemRPC, false},
		{"RPC", SubsystemRPC, false},
		{"0", SubsystemRPC, false},
		{" tof ", SubsystemTOF, false},
		{"1", SubsystemTOF, false},
		{"mdc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSubsystem(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "rpc", SubsystemRPC.String())
	assert.Equal(t, "tof", SubsystemTOF.String())
	assert.Equal(t, "subsystem(5)", Subsystem(5).String())
}
