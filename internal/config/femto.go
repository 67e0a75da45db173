package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/femto.defaults.json"

// Rejection modes accepted by rejection_mode.
const (
	RejectionUniform  = "uniform"
	RejectionOneUnder = "oneunder"
	RejectionWeighted = "weighted"
)

// FemtoConfig represents the root configuration for a correlation analysis.
// Every field is optional; the Get* accessors supply the defaults so partial
// JSON files are safe.
type FemtoConfig struct {
	// Mixing buffer
	BufferSize        *int  `json:"buffer_size,omitempty"`
	WaitForFullBuffer *bool `json:"wait_for_full_buffer,omitempty"`

	// Merge/split rejection
	RejectionMode     *string  `json:"rejection_mode,omitempty"` // uniform, oneunder, weighted
	WireCutoff        *int     `json:"wire_cutoff,omitempty"`
	RejectionFraction *float64 `json:"rejection_fraction,omitempty"`
	RejectDegenerate  *bool    `json:"reject_degenerate,omitempty"`

	// Pair and event binning
	KtEdges            []float64 `json:"kt_edges,omitempty"`
	RapidityEdges      []float64 `json:"rapidity_edges,omitempty"`
	AzimuthEdges       []float64 `json:"azimuth_edges,omitempty"`        // pair azimuth w.r.t. reaction plane, degrees
	ReactionPlaneEdges []float64 `json:"reaction_plane_edges,omitempty"` // event reaction plane, degrees

	// Event admission
	PlateEdges          []float64 `json:"plate_edges,omitempty"` // vertex z edges, one plate per interval
	VertexMaxRadius     *float64  `json:"vertex_max_radius,omitempty"`
	AllowedCentralities []int     `json:"allowed_centralities,omitempty"`

	// Track admission
	TrackCharge    *int     `json:"track_charge,omitempty"`
	RPCMomentumMin *float64 `json:"rpc_momentum_min,omitempty"`
	RPCMomentumMax *float64 `json:"rpc_momentum_max,omitempty"`
	RPCBetaMin     *float64 `json:"rpc_beta_min,omitempty"`
	RPCBetaMax     *float64 `json:"rpc_beta_max,omitempty"`
	TOFMomentumMin *float64 `json:"tof_momentum_min,omitempty"`
	TOFMomentumMax *float64 `json:"tof_momentum_max,omitempty"`
	TOFBetaMin     *float64 `json:"tof_beta_min,omitempty"`
	TOFBetaMax     *float64 `json:"tof_beta_max,omitempty"`

	// Accumulation
	QInvBins      *int     `json:"qinv_bins,omitempty"`
	QInvMax       *float64 `json:"qinv_max,omitempty"`
	ProgressEvery *int     `json:"progress_every,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyFemtoConfig returns a FemtoConfig with all fields unset.
// Use LoadFemtoConfig to load actual values from the defaults file.
func EmptyFemtoConfig() *FemtoConfig {
	return &FemtoConfig{}
}

// LoadFemtoConfig loads a FemtoConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadFemtoConfig(path string) (*FemtoConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyFemtoConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *FemtoConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/femto/analysis/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadFemtoConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// JSON returns the configuration as compact JSON, as stored alongside run results.
func (c *FemtoConfig) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Validate checks that the configuration values are valid.
func (c *FemtoConfig) Validate() error {
	if c.BufferSize != nil && *c.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be positive, got %d", *c.BufferSize)
	}

	if c.RejectionMode != nil {
		switch strings.ToLower(*c.RejectionMode) {
		case RejectionUniform, RejectionOneUnder, RejectionWeighted:
		default:
			return fmt.Errorf("unknown rejection_mode %q", *c.RejectionMode)
		}
	}

	if c.RejectionFraction != nil {
		if *c.RejectionFraction < 0 || *c.RejectionFraction > 1 {
			return fmt.Errorf("rejection_fraction must be between 0 and 1, got %f", *c.RejectionFraction)
		}
	}

	if c.WireCutoff != nil && *c.WireCutoff < 0 {
		return fmt.Errorf("wire_cutoff must be non-negative, got %d", *c.WireCutoff)
	}

	edges := []struct {
		name  string
		edges []float64
	}{
		{"kt_edges", c.KtEdges},
		{"rapidity_edges", c.RapidityEdges},
		{"azimuth_edges", c.AzimuthEdges},
		{"reaction_plane_edges", c.ReactionPlaneEdges},
		{"plate_edges", c.PlateEdges},
	}
	for _, e := range edges {
		if e.edges == nil {
			continue
		}
		if err := validateEdges(e.edges); err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
	}

	windows := []struct {
		name     string
		min, max *float64
	}{
		{"rpc_momentum", c.RPCMomentumMin, c.RPCMomentumMax},
		{"rpc_beta", c.RPCBetaMin, c.RPCBetaMax},
		{"tof_momentum", c.TOFMomentumMin, c.TOFMomentumMax},
		{"tof_beta", c.TOFBetaMin, c.TOFBetaMax},
	}
	for _, w := range windows {
		if w.min != nil && w.max != nil && *w.min > *w.max {
			return fmt.Errorf("%s_min %f exceeds %s_max %f", w.name, *w.min, w.name, *w.max)
		}
	}

	if c.QInvBins != nil && *c.QInvBins < 1 {
		return fmt.Errorf("qinv_bins must be positive, got %d", *c.QInvBins)
	}
	if c.QInvMax != nil && *c.QInvMax <= 0 {
		return fmt.Errorf("qinv_max must be positive, got %f", *c.QInvMax)
	}
	if c.VertexMaxRadius != nil && *c.VertexMaxRadius <= 0 {
		return fmt.Errorf("vertex_max_radius must be positive, got %f", *c.VertexMaxRadius)
	}

	return nil
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 {
		return fmt.Errorf("need at least 2 edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return fmt.Errorf("edges must be strictly increasing at index %d (%f <= %f)", i, edges[i], edges[i-1])
		}
	}
	return nil
}

// GetBufferSize returns the buffer_size value or the default.
func (c *FemtoConfig) GetBufferSize() int {
	if c.BufferSize == nil {
		return 50
	}
	return *c.BufferSize
}

// GetWaitForFullBuffer returns the wait_for_full_buffer value or the default.
func (c *FemtoConfig) GetWaitForFullBuffer() bool {
	if c.WaitForFullBuffer == nil {
		return true
	}
	return *c.WaitForFullBuffer
}

// GetRejectionMode returns the lower-cased rejection_mode value or the default.
func (c *FemtoConfig) GetRejectionMode() string {
	if c.RejectionMode == nil || *c.RejectionMode == "" {
		return RejectionOneUnder
	}
	return strings.ToLower(*c.RejectionMode)
}

// GetWireCutoff returns the wire_cutoff value or the default.
func (c *FemtoConfig) GetWireCutoff() int {
	if c.WireCutoff == nil {
		return 2
	}
	return *c.WireCutoff
}

// GetRejectionFraction returns the rejection_fraction value or the default.
func (c *FemtoConfig) GetRejectionFraction() float64 {
	if c.RejectionFraction == nil {
		return 0.5
	}
	return *c.RejectionFraction
}

// GetRejectDegenerate returns the reject_degenerate value or the default.
func (c *FemtoConfig) GetRejectDegenerate() bool {
	if c.RejectDegenerate == nil {
		return false
	}
	return *c.RejectDegenerate
}

// GetKtEdges returns the kt_edges value or the default (MeV/c).
func (c *FemtoConfig) GetKtEdges() []float64 {
	return edgesOr(c.KtEdges, []float64{0, 200, 400, 600, 800, 1000, 1200, 1400, 1600})
}

// GetRapidityEdges returns the rapidity_edges value or the default.
func (c *FemtoConfig) GetRapidityEdges() []float64 {
	return edgesOr(c.RapidityEdges, []float64{0.09, 0.29, 0.49, 0.69, 0.89, 1.09, 1.29, 1.49})
}

// GetAzimuthEdges returns the azimuth_edges value or the default (degrees).
func (c *FemtoConfig) GetAzimuthEdges() []float64 {
	return edgesOr(c.AzimuthEdges, []float64{0, 22.5, 45, 67.5, 90, 112.5, 135, 157.5, 180})
}

// GetReactionPlaneEdges returns the reaction_plane_edges value or the default (degrees).
func (c *FemtoConfig) GetReactionPlaneEdges() []float64 {
	return edgesOr(c.ReactionPlaneEdges, []float64{0, 22.5, 45, 67.5, 90, 112.5, 135, 157.5, 180})
}

// GetPlateEdges returns the plate_edges value or the default (mm).
func (c *FemtoConfig) GetPlateEdges() []float64 {
	return edgesOr(c.PlateEdges, []float64{-75, -71, -67, -63, -59, -55, -51, -47, -43, -39, -35, -31, -27, -23, -19, -15})
}

// GetVertexMaxRadius returns the vertex_max_radius value or the default (mm).
func (c *FemtoConfig) GetVertexMaxRadius() float64 {
	if c.VertexMaxRadius == nil {
		return 3
	}
	return *c.VertexMaxRadius
}

// GetAllowedCentralities returns the allowed_centralities value or the default.
func (c *FemtoConfig) GetAllowedCentralities() []int {
	if len(c.AllowedCentralities) == 0 {
		return []int{1, 2, 3, 4}
	}
	out := make([]int, len(c.AllowedCentralities))
	copy(out, c.AllowedCentralities)
	return out
}

// GetTrackCharge returns the track_charge value or the default.
func (c *FemtoConfig) GetTrackCharge() int {
	if c.TrackCharge == nil {
		return 1
	}
	return *c.TrackCharge
}

// GetRPCMomentumWindow returns the RPC momentum window (MeV/c).
func (c *FemtoConfig) GetRPCMomentumWindow() (float64, float64) {
	return valueOr(c.RPCMomentumMin, 100), valueOr(c.RPCMomentumMax, 2000)
}

// GetRPCBetaWindow returns the RPC beta window.
func (c *FemtoConfig) GetRPCBetaWindow() (float64, float64) {
	return valueOr(c.RPCBetaMin, 0.2), valueOr(c.RPCBetaMax, 1.0)
}

// GetTOFMomentumWindow returns the TOF momentum window (MeV/c).
func (c *FemtoConfig) GetTOFMomentumWindow() (float64, float64) {
	return valueOr(c.TOFMomentumMin, 100), valueOr(c.TOFMomentumMax, 2000)
}

// GetTOFBetaWindow returns the TOF beta window.
func (c *FemtoConfig) GetTOFBetaWindow() (float64, float64) {
	return valueOr(c.TOFBetaMin, 0.2), valueOr(c.TOFBetaMax, 1.0)
}

// GetQInvBins returns the qinv_bins value or the default.
func (c *FemtoConfig) GetQInvBins() int {
	if c.QInvBins == nil {
		return 250
	}
	return *c.QInvBins
}

// GetQInvMax returns the qinv_max value or the default (MeV/c).
func (c *FemtoConfig) GetQInvMax() float64 {
	return valueOr(c.QInvMax, 500)
}

// GetProgressEvery returns the progress_every value or the default.
// Zero disables progress logging.
func (c *FemtoConfig) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return 10000
	}
	return *c.ProgressEvery
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func edgesOr(edges, def []float64) []float64 {
	if len(edges) == 0 {
		return def
	}
	out := make([]float64, len(edges))
	copy(out, edges)
	return out
}
