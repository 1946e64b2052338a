package script

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"
	"gorgonia.org/tensor"

	"github.com/chazu/resin/pkg/meshgen"
	"github.com/chazu/resin/pkg/raycast"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms console source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Comment conversion: ; line comments become // comments, which is
//     what zygomys expects.
//
//  2. Kebab-case to underscore: signed-distance -> signed_distance.
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case
//     identifiers to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries. Line
// structure is preserved, so zygomys error positions refer to the
// original source.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters (not a
		// minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMesh wraps a meshgen.Mesh so it can be passed between builtins.
type sexpMesh struct {
	mesh *meshgen.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %d triangles)", m.mesh.TriangleCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toMesh extracts a meshgen.Mesh from a sexpMesh.
func toMesh(s zygo.Sexp) (*meshgen.Mesh, error) {
	if m, ok := s.(*sexpMesh); ok {
		return m.mesh, nil
	}
	return nil, fmt.Errorf("expected mesh, got %T (%s)", s, s.SexpString(nil))
}

// floatArgs extracts exactly want numeric arguments.
func floatArgs(builtin string, args []zygo.Sexp, want int) ([]float64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("%s requires %d numeric arguments, got %d",
			builtin, want, len(args))
	}
	out := make([]float64, want)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", builtin, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// queryTensor packs float64 console values into a single-row float32
// tensor with the given trailing dimension.
func queryTensor(vals []float64, dim int) *tensor.Dense {
	data := make([]float32, len(vals))
	for i, v := range vals {
		data[i] = float32(v)
	}
	return tensor.New(tensor.WithShape(1, dim), tensor.WithBacking(data))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// session carries the scene a script builds up across builtin calls.
type session struct {
	scene *raycast.Scene
}

// registerBuiltins installs the console builtins into a zygomys
// environment. Shape builtins produce meshes, add attaches them to the
// session scene, and query builtins interrogate it.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so kebab-case names resolve.
func registerBuiltins(env *zygo.Zlisp, sess *session) {

	// -----------------------------------------------------------------------
	// (cuboid x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("cuboid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("cuboid", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpMesh{mesh: meshgen.Cuboid(float32(v[0]), float32(v[1]), float32(v[2]))}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere radius [cells])
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("sphere requires (radius [cells]), got %d arguments", len(args))
		}
		r, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		cells := 0
		if len(args) == 2 {
			if cells, err = toInt(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: cells: %w", err)
			}
		}
		m, err := meshgen.Sphere(r, cells)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return &sexpMesh{mesh: m}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder height radius [cells])
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 || len(args) > 3 {
			return zygo.SexpNull, fmt.Errorf("cylinder requires (height radius [cells]), got %d arguments", len(args))
		}
		h, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		r, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		cells := 0
		if len(args) == 3 {
			if cells, err = toInt(args[2]); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: cells: %w", err)
			}
		}
		m, err := meshgen.Cylinder(h, r, cells)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpMesh{mesh: m}, nil
	})

	// -----------------------------------------------------------------------
	// (translate mesh dx dy dz)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("translate requires (mesh dx dy dz), got %d arguments", len(args))
		}
		m, err := toMesh(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		d, err := floatArgs("translate", args[1:], 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		m.Translate(float32(d[0]), float32(d[1]), float32(d[2]))
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (add mesh) -> surface id
	// -----------------------------------------------------------------------
	env.AddFunction("add", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("add requires a mesh argument, got %d arguments", len(args))
		}
		m, err := toMesh(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add: %w", err)
		}
		id, err := sess.scene.AddTriangles(m.Vertices, m.Triangles)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add: %w", err)
		}
		return &zygo.SexpInt{Val: int64(id)}, nil
	})

	// -----------------------------------------------------------------------
	// (surfaces) -> number of surfaces added so far
	// -----------------------------------------------------------------------
	env.AddFunction("surfaces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(sess.scene.SurfaceCount())}, nil
	})

	// -----------------------------------------------------------------------
	// (cast ox oy oz dx dy dz) -> hit distance, +Inf on miss
	// -----------------------------------------------------------------------
	env.AddFunction("cast", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("cast", args, 6)
		if err != nil {
			return zygo.SexpNull, err
		}
		res, err := sess.scene.CastRays(queryTensor(v, 6))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cast: %w", err)
		}
		return &zygo.SexpFloat{Val: float64(res.THit.Data().([]float32)[0])}, nil
	})

	// -----------------------------------------------------------------------
	// (count ox oy oz dx dy dz) -> number of crossings
	// -----------------------------------------------------------------------
	env.AddFunction("count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("count", args, 6)
		if err != nil {
			return zygo.SexpNull, err
		}
		res, err := sess.scene.CountIntersections(queryTensor(v, 6))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("count: %w", err)
		}
		return &zygo.SexpInt{Val: int64(res.Data().([]int32)[0])}, nil
	})

	// -----------------------------------------------------------------------
	// (distance x y z) -> unsigned distance to the nearest surface
	// -----------------------------------------------------------------------
	env.AddFunction("distance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("distance", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		res, err := sess.scene.ComputeDistance(queryTensor(v, 3))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("distance: %w", err)
		}
		return &zygo.SexpFloat{Val: float64(res.Data().([]float32)[0])}, nil
	})

	// -----------------------------------------------------------------------
	// (signed-distance x y z) -> negative inside, positive outside
	//
	// Registered as "signed_distance" because zygomys does not support
	// hyphens in identifiers. The preprocessor converts signed-distance
	// to signed_distance in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("signed_distance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("signed-distance", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		res, err := sess.scene.ComputeSignedDistance(queryTensor(v, 3))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("signed-distance: %w", err)
		}
		return &zygo.SexpFloat{Val: float64(res.Data().([]float32)[0])}, nil
	})

	// -----------------------------------------------------------------------
	// (occupancy x y z) -> 1 inside, 0 outside
	// -----------------------------------------------------------------------
	env.AddFunction("occupancy", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("occupancy", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		res, err := sess.scene.ComputeOccupancy(queryTensor(v, 3))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("occupancy: %w", err)
		}
		return &zygo.SexpFloat{Val: float64(res.Data().([]float32)[0])}, nil
	})

	// -----------------------------------------------------------------------
	// (closest x y z) -> (cx cy cz), the nearest point on any surface
	// -----------------------------------------------------------------------
	env.AddFunction("closest", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floatArgs("closest", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		res, err := sess.scene.ComputeClosestPoints(queryTensor(v, 3))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("closest: %w", err)
		}
		pts := res.Points.Data().([]float32)
		return zygo.MakeList([]zygo.Sexp{
			&zygo.SexpFloat{Val: float64(pts[0])},
			&zygo.SexpFloat{Val: float64(pts[1])},
			&zygo.SexpFloat{Val: float64(pts[2])},
		}), nil
	})
}
