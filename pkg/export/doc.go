// Package export serializes textured models to Wavefront OBJ with a
// material library and a PNG texture map.
//
// # Overview
//
// A consolidated model is written as three files sharing a prefix:
//
//   - <prefix>.obj                        geometry, texcoords, normals, faces
//   - <prefix>.mtl                        one diffuse-mapped material
//   - <prefix>_material0000_map_Kd.png    the packed texture atlas
//
// The OBJ references the MTL by relative name, and the MTL references the
// PNG by relative name, so the triple stays portable as long as the files
// move together.
//
// # Usage
//
// Use [ExportModel] to write all three files, or the individual Write*
// functions to stream a single artifact to any io.Writer:
//
//	err := export.ExportModel(model, "out", "textured")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The package also writes per-stage timing reports as CSV, see
// [WriteTimingsCSV].
package export
