// Package render drives the external engine that turns a composed scene
// into an image.
//
// # Engines
//
// An [Engine] is a small stateful facade over a renderer: objects are
// loaded one by one, the camera is set, one image is rendered and the scene
// is cleared again. Engines register themselves by name with [Register]:
//
//   - [schematic]: top-down Graphviz diagrams, PNG or WebP
//   - [command]: hands a JSON job to an external program (e.g. Blender)
//
// # Scene
//
// A [Scene] owns one engine and guarantees that the engine is reset before
// and after every image, including when loading, camera setup or rendering
// fails:
//
//	s := render.NewScene(engine)
//	err := s.Use(ctx, func(st render.Stage) error {
//	    if err := st.Load(ctx, shoe, p1); err != nil {
//	        return err
//	    }
//	    ...
//	    return st.Render(ctx, "out/shoe_puma/img_000001.png")
//	})
//
// A scene is not safe for concurrent use; run one scene per process or
// goroutine.
//
// # Errors
//
// Engine failures are reported with the RENDER_ENGINE code. Errors that
// wrap [ErrEngineFatal] mean the engine cannot render anything anymore and
// a batch must stop.
//
// [schematic]: github.com/matzehuels/spatialgen/pkg/render/schematic
// [command]: github.com/matzehuels/spatialgen/pkg/render/command
package render
