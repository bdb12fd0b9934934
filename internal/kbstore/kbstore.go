// Package kbstore reads the on-disk, per-field/per-well knowledge
// base (spec.md §6). LoadPrognosis decodes pre-spud/prognosis.toml and
// mid-well snapshot_<ts>.toml[.zst] files; geology.toml and the
// post-well directory are only located (GeologyPath, PostWellDir), not
// decoded, and the watcher does not poll them. Decoding uses pelletier/go-toml/v2 directly (not through
// viper, since these are data files rather than app config, mirroring
// CrlsMrls-dummybox's direct toml.Unmarshal use alongside its viper-
// based app config). Directory change detection polls with
// time.Ticker rather than fsnotify — justified in DESIGN.md, since no
// example repo imports fsnotify directly (it arrives only as viper's
// own transitive dependency).
package kbstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml/v2"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// parameterRangeTOML mirrors types.ParameterRange with toml tags —
// the knowledge-base files are hand-authored TOML, so field names are
// spelled out rather than inferred from types.go's json tags.
type parameterRangeTOML struct {
	Min     float64 `toml:"min"`
	Optimal float64 `toml:"optimal"`
	Max     float64 `toml:"max"`
}

func (r parameterRangeTOML) toType() types.ParameterRange {
	return types.ParameterRange{Min: r.Min, Optimal: r.Optimal, Max: r.Max}
}

type bestParamsTOML struct {
	WOBKlbs float64 `toml:"wob_klbs"`
	RPM     float64 `toml:"rpm"`
}

type offsetPerformanceTOML struct {
	Wells       []string        `toml:"wells"`
	AvgROPFtHr  float64         `toml:"avg_rop_ft_hr"`
	BestROPFtHr float64         `toml:"best_rop_ft_hr"`
	AvgMSEPsi   float64         `toml:"avg_mse_psi"`
	BestParams  bestParamsTOML  `toml:"best_params"`
	Notes       string          `toml:"notes"`
}

type formationParametersTOML struct {
	WOBKlbs      parameterRangeTOML `toml:"wob_klbs"`
	RPM          parameterRangeTOML `toml:"rpm"`
	FlowGPM      parameterRangeTOML `toml:"flow_gpm"`
	MudWeightPPG float64            `toml:"mud_weight_ppg"`
	BitType      string             `toml:"bit_type"`
}

type formationIntervalTOML struct {
	Name                string                  `toml:"name"`
	DepthTopFt          float64                 `toml:"depth_top_ft"`
	DepthBaseFt         float64                 `toml:"depth_base_ft"`
	Lithology           string                  `toml:"lithology"`
	Hardness            float64                 `toml:"hardness"`
	Drillability        string                  `toml:"drillability"`
	PorePressurePPG     float64                 `toml:"pore_pressure_ppg"`
	FractureGradientPPG float64                 `toml:"fracture_gradient_ppg"`
	Hazards             []string                `toml:"hazards"`
	Parameters          formationParametersTOML `toml:"parameters"`
	OffsetPerformance    offsetPerformanceTOML   `toml:"offset_performance"`
}

type prognosisWellInfoTOML struct {
	Name             string  `toml:"name"`
	Field            string  `toml:"field"`
	SpudDate         string  `toml:"spud_date"`
	TargetDepthFt    float64 `toml:"target_depth_ft"`
	CoordinateSystem string  `toml:"coordinate_system"`
}

type casingIntervalTOML struct {
	Name       string  `toml:"name"`
	SetDepthFt float64 `toml:"set_depth_ft"`
	SizeInches float64 `toml:"size_inches"`
}

// prognosisTOML is the decode target for pre-spud/prognosis.toml and
// for mid-well/snapshot_<ts>.toml[.zst] (snapshots carry the same
// shape, refreshed as drilling progresses).
type prognosisTOML struct {
	Well       prognosisWellInfoTOML   `toml:"well"`
	Formations []formationIntervalTOML `toml:"formations"`
	Casings    []casingIntervalTOML    `toml:"casings"`
}

func (p prognosisTOML) toType() types.FormationPrognosis {
	out := types.FormationPrognosis{
		Well: types.PrognosisWellInfo{
			Name:             p.Well.Name,
			Field:            p.Well.Field,
			SpudDate:         p.Well.SpudDate,
			TargetDepthFt:    p.Well.TargetDepthFt,
			CoordinateSystem: p.Well.CoordinateSystem,
		},
	}
	for _, f := range p.Formations {
		out.Formations = append(out.Formations, types.FormationInterval{
			Name:                f.Name,
			DepthTopFt:          f.DepthTopFt,
			DepthBaseFt:         f.DepthBaseFt,
			Lithology:           f.Lithology,
			Hardness:            f.Hardness,
			Drillability:        f.Drillability,
			PorePressurePPG:     f.PorePressurePPG,
			FractureGradientPPG: f.FractureGradientPPG,
			Hazards:             f.Hazards,
			Parameters: types.FormationParameters{
				WOBKlbs:      f.Parameters.WOBKlbs.toType(),
				RPM:          f.Parameters.RPM.toType(),
				FlowGPM:      f.Parameters.FlowGPM.toType(),
				MudWeightPPG: f.Parameters.MudWeightPPG,
				BitType:      f.Parameters.BitType,
			},
			OffsetPerformance: types.OffsetPerformance{
				Wells:       f.OffsetPerformance.Wells,
				AvgROPFtHr:  f.OffsetPerformance.AvgROPFtHr,
				BestROPFtHr: f.OffsetPerformance.BestROPFtHr,
				AvgMSEPsi:   f.OffsetPerformance.AvgMSEPsi,
				BestParams: types.BestParams{
					WOBKlbs: f.OffsetPerformance.BestParams.WOBKlbs,
					RPM:     f.OffsetPerformance.BestParams.RPM,
				},
				Notes: f.OffsetPerformance.Notes,
			},
		})
	}
	for _, c := range p.Casings {
		out.Casings = append(out.Casings, types.CasingInterval{
			Name: c.Name, SetDepthFt: c.SetDepthFt, SizeInches: c.SizeInches,
		})
	}
	return out
}

// WellPaths locates the knowledge-base files for one well under root
// (spec.md §6's <root>/<field>/... layout).
type WellPaths struct {
	Root, Field, Well string
}

func (w WellPaths) fieldDir() string { return filepath.Join(w.Root, w.Field) }
func (w WellPaths) wellDir() string  { return filepath.Join(w.fieldDir(), "wells", w.Well) }

// GeologyPath is the field-level geology file, shared by every well
// in the field.
func (w WellPaths) GeologyPath() string { return filepath.Join(w.fieldDir(), "geology.toml") }

// PrognosisPath is the pre-spud prognosis authored before drilling
// begins.
func (w WellPaths) PrognosisPath() string {
	return filepath.Join(w.wellDir(), "pre-spud", "prognosis.toml")
}

// midWellDir holds timestamped snapshots written as drilling
// progresses.
func (w WellPaths) midWellDir() string { return filepath.Join(w.wellDir(), "mid-well") }

// PostWellDir holds performance_<formation>.toml and summary.toml,
// written by the debrief collaborator (not this package — see
// DESIGN.md).
func (w WellPaths) PostWellDir() string { return filepath.Join(w.wellDir(), "post-well") }

// LoadPrognosis reads the latest available formation prognosis for
// the well: the newest mid-well snapshot if one exists, else the
// pre-spud prognosis.
func LoadPrognosis(paths WellPaths) (types.FormationPrognosis, error) {
	snapshotPath, err := latestSnapshot(paths.midWellDir())
	if err != nil {
		return types.FormationPrognosis{}, err
	}
	if snapshotPath != "" {
		return decodePrognosisFile(snapshotPath)
	}
	if _, err := os.Stat(paths.PrognosisPath()); err != nil {
		if os.IsNotExist(err) {
			return types.FormationPrognosis{}, nil
		}
		return types.FormationPrognosis{}, fmt.Errorf("kbstore: stat prognosis: %w", err)
	}
	return decodePrognosisFile(paths.PrognosisPath())
}

// latestSnapshot returns the lexicographically-last
// snapshot_<ts>.toml[.zst] file in dir (timestamps sort correctly as
// strings when zero-padded, per spec.md's <ts> naming), or "" if the
// directory has none.
func latestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("kbstore: read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "snapshot_") && (strings.HasSuffix(name, ".toml") || strings.HasSuffix(name, ".toml.zst")) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// decodePrognosisFile decodes path, transparently decompressing zstd
// when the name ends in .zst.
func decodePrognosisFile(path string) (types.FormationPrognosis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.FormationPrognosis{}, fmt.Errorf("kbstore: read %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".zst") {
		raw, err = decompressZstd(raw)
		if err != nil {
			return types.FormationPrognosis{}, fmt.Errorf("kbstore: decompress %s: %w", path, err)
		}
	}

	var decoded prognosisTOML
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		return types.FormationPrognosis{}, fmt.Errorf("kbstore: decode %s: %w", path, err)
	}
	return decoded.toType(), nil
}

func decompressZstd(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}

// CompressSnapshot zstd-compresses (level 3 — zstd's standard
// default, klauspost/compress's SpeedDefault — per spec.md §6) a
// rendered snapshot TOML document for writing to
// mid-well/snapshot_<ts>.toml.zst.
func CompressSnapshot(tomlBytes []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(tomlBytes, nil), nil
}
