package geom

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadPLY parses an ASCII PLY triangle mesh from r.
//
// Supported vertex properties are x, y, z and optionally nx, ny, nz; other
// scalar properties are parsed and discarded. Face elements must be index
// lists of length three. Binary PLY is not supported.
func ReadPLY(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "ply" {
		return nil, fmt.Errorf("not a PLY file: missing magic")
	}

	var (
		numVertices int
		numFaces    int
		props       []string // vertex scalar property names, header order
		inVertex    bool
		headerDone  bool
	)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, fmt.Errorf("unsupported PLY format %q (only ascii)", strings.Join(fields[1:], " "))
			}
		case "comment", "obj_info":
			// ignored
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("malformed element line %q", sc.Text())
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("element count: %w", err)
			}
			switch fields[1] {
			case "vertex":
				numVertices = n
				inVertex = true
			case "face":
				numFaces = n
				inVertex = false
			default:
				inVertex = false
			}
		case "property":
			if inVertex && len(fields) >= 3 && fields[1] != "list" {
				props = append(props, fields[len(fields)-1])
			}
		case "end_header":
			headerDone = true
		}
		if headerDone {
			break
		}
	}
	if !headerDone {
		return nil, fmt.Errorf("truncated PLY header")
	}

	col := map[string]int{}
	for i, name := range props {
		col[name] = i
	}
	for _, need := range []string{"x", "y", "z"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("vertex element missing %q property", need)
		}
	}
	_, hasNX := col["nx"]
	_, hasNY := col["ny"]
	_, hasNZ := col["nz"]
	hasNormals := hasNX && hasNY && hasNZ

	mesh := &Mesh{
		Vertices: make([]r3.Vec, 0, numVertices),
		Faces:    make([]int, 0, numFaces*3),
	}
	if hasNormals {
		mesh.Normals = make([]r3.Vec, 0, numVertices)
	}

	row := make([]float64, len(props))
	for i := 0; i < numVertices; i++ {
		fields, err := scanRow(sc)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		if len(fields) < len(props) {
			return nil, fmt.Errorf("vertex %d: expected %d values, got %d", i, len(props), len(fields))
		}
		for j := range props {
			if row[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
				return nil, fmt.Errorf("vertex %d column %d: %w", i, j, err)
			}
		}
		mesh.Vertices = append(mesh.Vertices, r3.Vec{X: row[col["x"]], Y: row[col["y"]], Z: row[col["z"]]})
		if hasNormals {
			mesh.Normals = append(mesh.Normals, r3.Vec{X: row[col["nx"]], Y: row[col["ny"]], Z: row[col["nz"]]})
		}
	}

	for i := 0; i < numFaces; i++ {
		fields, err := scanRow(sc)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("face %d list length: %w", i, err)
		}
		if n != 3 {
			return nil, fmt.Errorf("face %d has %d vertices, only triangles are supported", i, n)
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("face %d: truncated index list", i)
		}
		for j := 1; j <= 3; j++ {
			v, err := strconv.Atoi(fields[j])
			if err != nil {
				return nil, fmt.Errorf("face %d index %d: %w", i, j-1, err)
			}
			mesh.Faces = append(mesh.Faces, v)
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	mesh.PrepareNormals()
	return mesh, nil
}

// scanRow returns the next non-empty whitespace-split line.
func scanRow(sc *bufio.Scanner) ([]string, error) {
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

// LoadPLY reads an ASCII PLY mesh from path.
func LoadPLY(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	m, err := ReadPLY(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}
