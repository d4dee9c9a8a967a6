package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"homey-layout/internal/mesh"
)

// helperNameRE matches object or group names that exporters use for
// non-visual geometry: collision hulls, shadow catchers, bounds and LODs.
var helperNameRE = regexp.MustCompile(`(?i)^(?:` +
	`ucx_|ubx_|ucp_|usp_` + // collision prefixes
	`|collision|collider|proxy|bbox|bounds|bounding` +
	`|shadow|shadowplane|shadow_plane|ground_?plane|floor_?plane` +
	`|helper|dummy|locator` +
	`)`)

// lodRE matches reduced level-of-detail copies; LOD0 is the mesh to keep.
var lodRE = regexp.MustCompile(`(?i)[_\-.]?lod[1-9]\d*$`)

// helperTexPatterns are texture stems used only by shadow or AO planes.
var helperTexPatterns = []string{"shadow", "ao_plane", "contact_shadow"}

// IsHelperMesh reports whether m is exporter helper geometry rather than
// part of the visible piece of furniture.
func IsHelperMesh(m *mesh.Mesh) bool {
	name := strings.TrimSpace(m.Name)
	if helperNameRE.MatchString(name) || lodRE.MatchString(name) {
		return true
	}

	tex := strings.ToLower(m.TexPath)
	stem := strings.TrimSuffix(filepath.Base(strings.ReplaceAll(tex, "\\", "/")), filepath.Ext(tex))
	for _, p := range helperTexPatterns {
		if strings.Contains(stem, p) {
			return true
		}
	}
	return false
}

// StripHelpers drops helper meshes. If every mesh looks like a helper the
// input is returned unchanged so the asset still renders.
func StripHelpers(meshes []mesh.Mesh) []mesh.Mesh {
	out := make([]mesh.Mesh, 0, len(meshes))
	for i := range meshes {
		if !IsHelperMesh(&meshes[i]) {
			out = append(out, meshes[i])
		}
	}
	if len(out) == 0 {
		return meshes
	}
	return out
}
