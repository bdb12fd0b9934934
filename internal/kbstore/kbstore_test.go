package kbstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

const samplePrognosis = `
[well]
name = "Balder-7"
field = "Balder"
spud_date = "2026-01-15"
target_depth_ft = 12000
coordinate_system = "UTM31N"

[[formations]]
name = "Balder Fm"
depth_top_ft = 4000
depth_base_ft = 5200
lithology = "shale"
hardness = 6.5
drillability = "moderate"
pore_pressure_ppg = 9.2
fracture_gradient_ppg = 15.1
hazards = ["overpressure"]

[formations.parameters]
mud_weight_ppg = 10.2
bit_type = "PDC"

[formations.parameters.wob_klbs]
min = 15
optimal = 25
max = 35

[formations.parameters.rpm]
min = 80
optimal = 120
max = 160

[formations.parameters.flow_gpm]
min = 400
optimal = 500
max = 600

[formations.offset_performance]
wells = ["Balder-3", "Balder-5"]
avg_rop_ft_hr = 45.0
best_rop_ft_hr = 62.0
avg_mse_psi = 18500
notes = "PDC bits outperform tricone in this interval"

[formations.offset_performance.best_params]
wob_klbs = 25
rpm = 120

[[casings]]
name = "9-5/8 intermediate"
set_depth_ft = 6000
size_inches = 9.625
`

func writeWellFixture(t *testing.T) WellPaths {
	t.Helper()
	root := t.TempDir()
	paths := WellPaths{Root: root, Field: "Balder", Well: "Balder-7"}

	require.NoError(t, os.MkdirAll(filepath.Dir(paths.PrognosisPath()), 0755))
	require.NoError(t, os.WriteFile(paths.PrognosisPath(), []byte(samplePrognosis), 0644))
	return paths
}

func TestLoadPrognosis_ReadsPreSpudFile(t *testing.T) {
	paths := writeWellFixture(t)

	prognosis, err := LoadPrognosis(paths)
	require.NoError(t, err)

	require.Len(t, prognosis.Formations, 1)
	f := prognosis.Formations[0]
	assert.Equal(t, "Balder Fm", f.Name)
	assert.Equal(t, 4000.0, f.DepthTopFt)
	assert.Equal(t, 25.0, f.Parameters.WOBKlbs.Optimal)
	assert.Equal(t, []string{"Balder-3", "Balder-5"}, f.OffsetPerformance.Wells)
	require.Len(t, prognosis.Casings, 1)
	assert.Equal(t, 9.625, prognosis.Casings[0].SizeInches)
}

func TestLoadPrognosis_PrefersNewestMidWellSnapshot(t *testing.T) {
	paths := writeWellFixture(t)
	require.NoError(t, os.MkdirAll(paths.midWellDir(), 0755))

	older := samplePrognosis
	newer := `
[well]
name = "Balder-7"
field = "Balder"

[[formations]]
name = "Updated Fm"
depth_top_ft = 5200
`
	require.NoError(t, os.WriteFile(filepath.Join(paths.midWellDir(), "snapshot_0001.toml"), []byte(older), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.midWellDir(), "snapshot_0002.toml"), []byte(newer), 0644))

	prognosis, err := LoadPrognosis(paths)
	require.NoError(t, err)
	require.Len(t, prognosis.Formations, 1)
	assert.Equal(t, "Updated Fm", prognosis.Formations[0].Name)
}

func TestLoadPrognosis_ReadsCompressedSnapshot(t *testing.T) {
	paths := writeWellFixture(t)
	require.NoError(t, os.MkdirAll(paths.midWellDir(), 0755))

	compressed, err := CompressSnapshot([]byte(samplePrognosis))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(paths.midWellDir(), "snapshot_0001.toml.zst"), compressed, 0644))

	prognosis, err := LoadPrognosis(paths)
	require.NoError(t, err)
	require.Len(t, prognosis.Formations, 1)
	assert.Equal(t, "Balder Fm", prognosis.Formations[0].Name)
}

func TestLoadPrognosis_MissingFileReturnsEmpty(t *testing.T) {
	paths := WellPaths{Root: t.TempDir(), Field: "Balder", Well: "Balder-9"}
	prognosis, err := LoadPrognosis(paths)
	require.NoError(t, err)
	assert.Empty(t, prognosis.Formations)
}

func TestWatcher_PublishesOnChange(t *testing.T) {
	paths := writeWellFixture(t)

	received := make(chan types.FormationPrognosis, 4)
	w := NewWatcher(paths, 5*time.Millisecond, func(p types.FormationPrognosis) {
		received <- p
	})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	select {
	case p := <-received:
		require.Len(t, p.Formations, 1)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected watcher to publish at least once")
	}
}
