package extract

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// model counts the geometry of a Wavefront OBJ file. Other 3D formats
// return no info.
func (e *Extractor) model(path string, size int64) (*metadata.ModelInfo, error) {
	if !strings.EqualFold(filepath.Ext(path), ".obj") {
		return nil, fmt.Errorf("%w: unsupported model format %s", ErrNoInfo, filepath.Ext(path))
	}
	f, err := filesystem.OpenWithRetry(path, e.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	defer filesystem.CloseLogged(f, "model")

	info := &metadata.ModelInfo{FileSize: size}
	groups := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			info.Vertices++
			// x y z r g b
			if len(fields) >= 7 {
				info.VertexColors = true
			}
		case "vn":
			info.Normals++
		case "vt":
			info.TextureCoords++
		case "f":
			info.Faces++
		case "o", "g":
			groups++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrNoInfo, path, err)
	}
	if info.Vertices == 0 {
		return nil, fmt.Errorf("%w: no vertices in %s", ErrNoInfo, path)
	}
	info.Meshes = groups
	if info.Meshes == 0 {
		info.Meshes = 1
	}
	return info, nil
}
