// Package texsource hands Pixaloop frames to a gogpu display as textures.
//
// A Source pulls frames from a FrameFunc, such as the engine's square frame,
// the stroke looper's canvas, or a recorded Clip, and keeps one GPU texture
// up to date with them:
//
//	src, err := texsource.New(app.GPUContextProvider(), func() image.Image {
//	    return lp.Frame()
//	})
//	...
//	app.OnDraw(func(dc *gogpu.Context) {
//	    src.Refresh()
//	    src.RenderTo(dc.AsTextureDrawer())
//	})
//
// Textures are created lazily on the first RenderTo, when a
// gpucontext.TextureCreator is available, and updated in place afterwards.
// A frame size change recreates the texture; the old one is destroyed only
// after the replacement upload, when the GPU no longer reads it.
package texsource
