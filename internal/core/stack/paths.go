package stack

import "path/filepath"

// =============================================================================
// Path Resolution
// =============================================================================

// ResolveRelativePaths rewrites relative bind-mount sources and build
// contexts to absolute paths under baseDir. Compose resolves relative paths
// against the manifest's directory, and the Engine API rejects relative
// bind sources outright, so callers must resolve before any container is
// created.
func ResolveRelativePaths(m *Manifest, baseDir string) {
	for i := range m.Services {
		svc := &m.Services[i]

		if svc.Build != nil && svc.Build.Context != "" && !filepath.IsAbs(svc.Build.Context) {
			svc.Build.Context = filepath.Join(baseDir, svc.Build.Context)
		}

		for j := range svc.Volumes {
			v := &svc.Volumes[j]
			if v.Type != VolumeMountTypeBind || v.Source == "" || filepath.IsAbs(v.Source) {
				continue
			}
			v.Source = filepath.Join(baseDir, v.Source)
		}
	}
}
