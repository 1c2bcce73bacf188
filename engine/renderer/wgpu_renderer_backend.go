package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/common"
	"github.com/lumen-engine/lumen-go/engine/renderer/pipeline"
	"github.com/lumen-engine/lumen-go/engine/renderer/shader"
)

// readbackRowAlignment is the WebGPU-required alignment for BytesPerRow in
// texture-to-buffer copies.
const readbackRowAlignment = 256

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Transient per-pass resources for offscreen target frames, released in EndFrame.
	targetDepthTexture *wgpu.Texture
	targetMSAATexture  *wgpu.Texture
	targetFrame        bool
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates a render pipeline based on the provided pipeline.
	// It handles creating the shader modules and render pipeline from the pipeline's configuration.
	//
	// Parameters:
	//   - p: the pipeline object containing the shaders and configuration for the pipeline
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// CompileShaderModule creates the GPU shader module for the given shader,
	// surfacing any validation error. The module itself is discarded; module
	// creation is how WGSL compilation errors are detected ahead of pipeline use.
	//
	// Parameters:
	//   - sh: the shader to compile
	//
	// Returns:
	//   - error: an error if module creation fails
	CompileShaderModule(sh shader.Shader) error

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all DrawMesh invocations within a single frame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// BeginTargetFrame begins a render pass into the given offscreen target
	// instead of the swapchain. Must be paired with EndFrame.
	//
	// Parameters:
	//   - target: the offscreen target to render into
	//
	// Returns:
	//   - error: an error if the pass could not be started
	BeginTargetFrame(target RenderTarget) error

	// DrawMesh encodes a single instanced draw command within the current render pass.
	//
	// Parameters:
	//   - p: the cached Pipeline to draw with
	//   - mesh: the MeshBinding holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	DrawMesh(p pipeline.Pipeline, mesh MeshBinding, instanceCount uint32)

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface — call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame for frames targeting the display.
	Present()

	// CreateTargetTexture creates an offscreen color texture and view usable as
	// a render attachment and readback copy source.
	//
	// Parameters:
	//   - label: debug label for the texture
	//   - width: texture width in pixels
	//   - height: texture height in pixels
	//   - samples: multisample count (1 = no MSAA)
	//
	// Returns:
	//   - *wgpu.Texture: the created texture
	//   - *wgpu.TextureView: a view of the texture
	//   - error: an error if creation fails
	CreateTargetTexture(label string, width, height, samples int) (*wgpu.Texture, *wgpu.TextureView, error)

	// ApplyScreenPass draws the pipeline as a full-screen triangle sampling
	// the target's current texture into a freshly allocated texture, then
	// swaps the new texture into the target. Subsequent pixel reads observe
	// the pass's output.
	//
	// Parameters:
	//   - target: the render target whose texture is filtered
	//   - p: the full-screen pass pipeline (must be registered)
	//
	// Returns:
	//   - error: an error if resource creation or submission fails
	ApplyScreenPass(target RenderTarget, p pipeline.Pipeline) error

	// ReadTexturePixels copies the target's resolve texture into a mappable
	// buffer, maps it asynchronously, and returns tightly packed RGBA pixels.
	//
	// Parameters:
	//   - target: the render target to read from
	//
	// Returns:
	//   - common.PixelData: width, height, and tightly packed RGBA pixels
	//   - error: an error if the copy or map fails
	ReadTexturePixels(target RenderTarget) (common.PixelData, error)

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data.
	//
	// Parameters:
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//
	// Returns:
	//   - *wgpu.Buffer: the created vertex buffer
	//   - *wgpu.Buffer: the created index buffer
	//   - error: an error if buffer creation fails
	InitMeshBuffers(vertexData, indexData []byte) (*wgpu.Buffer, *wgpu.Buffer, error)

	// WriteBuffer writes raw bytes into a GPU buffer at the given offset.
	//
	// Parameters:
	//   - buf: the destination GPU buffer
	//   - offset: byte offset within the buffer
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// Create the MSAA texture that the render pass draws into; the resolved
		// result is written to the swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	} else {
		// No MSAA — the render pass draws directly to the swapchain view.
		b.msaaTextureView = nil
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// Build the cached render pass descriptor for the main render target.
	// When MSAA is enabled, View is the MSAA texture and ResolveTarget is
	// set per-frame to the swapchain view. When disabled, View is set
	// per-frame to the swapchain view and ResolveTarget remains nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard // Don't store MSAA data, just resolve
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				ResolveTarget: nil,               // set per-frame when MSAA is on
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView, // Persistent until resize
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard, // Depth not needed after resolving
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := b.device.CreateShaderModule(vertexShader.ModuleDescriptor())
	if err != nil {
		vertexShader.MarkCompiled(err)
		return err
	}
	vertexShader.MarkCompiled(nil)

	fs, err := b.device.CreateShaderModule(fragmentShader.ModuleDescriptor())
	if err != nil {
		fragmentShader.MarkCompiled(err)
		return err
	}
	fragmentShader.MarkCompiled(nil)

	var blend *wgpu.BlendState
	if p.BlendEnabled() {
		blend = &wgpu.BlendStateAlphaBlending
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: p.PipelineKey() + " Render Pipeline",
		// Layout nil selects WebGPU auto-layout derived from the shaders.
		Layout: nil,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					Blend:     blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: func() uint32 {
				// Screen passes draw into a single-sampled texture with no
				// depth attachment; everything else joins the main pass.
				if p.ScreenPass() {
					return 1
				}
				return uint32(b.sampleCount)
			}(),
			Mask: 0xFFFFFFFF,
		},
		DepthStencil: func() *wgpu.DepthStencilState {
			if p.ScreenPass() {
				return nil
			}
			depthCompare := wgpu.CompareFunctionLess
			if !p.DepthTestEnabled() {
				depthCompare = wgpu.CompareFunctionAlways
			}
			return &wgpu.DepthStencilState{
				Format:            wgpu.TextureFormatDepth24Plus,
				DepthWriteEnabled: p.DepthWriteEnabled(),
				DepthCompare:      depthCompare,
				StencilFront: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
				StencilBack: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
			}
		}(),
	})
	if err != nil {
		return err
	}

	p.SetGPUPipeline(created)

	return nil
}

func (b *wgpuRendererBackendImpl) CompileShaderModule(sh shader.Shader) error {
	module, err := b.device.CreateShaderModule(sh.ModuleDescriptor())
	if err != nil {
		return fmt.Errorf("failed to compile shader %q: %w", sh.Key(), err)
	}
	module.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Defensive: if a previous frame's surface texture is still held, avoid
	// attempting to acquire another one. This prevents wgpu-native validation
	// errors like "Surface image is already acquired" when frames overlap.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	// When MSAA is enabled, the MSAA texture is the color attachment View and
	// the swapchain view is the ResolveTarget. When MSAA is off, the swapchain
	// view is the color attachment View directly and ResolveTarget is nil.
	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.targetFrame = false

	return nil
}

func (b *wgpuRendererBackendImpl) BeginTargetFrame(target RenderTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := target.TextureView()
	if view == nil {
		return fmt.Errorf("render target %q has no texture view", target.Name())
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	width := uint32(target.Width())
	height := uint32(target.Height())
	samples := uint32(target.SampleCount())
	if samples == 0 {
		samples = 1
	}

	colorAttachment := wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpClear,
		StoreOp: wgpu.StoreOpStore,
		ClearValue: wgpu.Color{
			R: 0.1, G: 0.1, B: 0.1, A: 1.0,
		},
	}

	if samples > 1 {
		// Multisampled target: draw into a transient MSAA texture and resolve
		// into the target's own view, mirroring the main-pass MSAA flow.
		msaaTexture, texErr := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: target.Name() + " MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              width,
				Height:             height,
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   samples,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if texErr != nil {
			encoder.Release()
			return texErr
		}
		msaaView, viewErr := msaaTexture.CreateView(nil)
		if viewErr != nil {
			msaaTexture.Release()
			encoder.Release()
			return viewErr
		}
		colorAttachment.View = msaaView
		colorAttachment.ResolveTarget = view
		colorAttachment.StoreOp = wgpu.StoreOpDiscard
		b.targetMSAATexture = msaaTexture
	}

	depthFormat := wgpu.TextureFormatDepth24Plus
	if target.HasStencil() {
		depthFormat = wgpu.TextureFormatDepth24PlusStencil8
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: target.Name() + " Depth Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		encoder.Release()
		return err
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		encoder.Release()
		return err
	}

	depthAttachment := &wgpu.RenderPassDepthStencilAttachment{
		View:            depthView,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpDiscard,
		DepthClearValue: 1.0,
	}
	if target.HasStencil() {
		depthAttachment.StencilLoadOp = wgpu.LoadOpClear
		depthAttachment.StencilStoreOp = wgpu.StoreOpDiscard
		depthAttachment.StencilClearValue = 0
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  target.Name() + " Render Pass",
		ColorAttachments:       []wgpu.RenderPassColorAttachment{colorAttachment},
		DepthStencilAttachment: depthAttachment,
	})

	b.frameEncoder = encoder
	b.framePass = pass
	b.targetDepthTexture = depthTexture
	b.targetFrame = true

	return nil
}

func (b *wgpuRendererBackendImpl) DrawMesh(p pipeline.Pipeline, mesh MeshBinding, instanceCount uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}

	b.framePass.SetPipeline(p.GPUPipeline())

	if bg := mesh.BindGroup(); bg != nil {
		b.framePass.SetBindGroup(0, bg, nil)
	}

	b.framePass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(mesh.IndexCount()), instanceCount, 0, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}

	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}

	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil

	// Release transient offscreen-pass resources immediately; swapchain
	// resources are held until Present.
	if b.targetDepthTexture != nil {
		b.targetDepthTexture.Release()
		b.targetDepthTexture = nil
	}
	if b.targetMSAATexture != nil {
		b.targetMSAATexture.Release()
		b.targetMSAATexture = nil
	}
	if b.targetFrame {
		b.targetFrame = false
		return
	}

	if err != nil {
		// Encoder finish failed for a surface frame; release the held
		// swapchain texture so the next BeginFrame can acquire a fresh one.
		if b.frameView != nil {
			b.frameView.Release()
			b.frameView = nil
		}
		if b.frameSurface != nil {
			b.frameSurface.Release()
			b.frameSurface = nil
		}
	}
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	// Present the acquired surface image and release local references.
	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) CreateTargetTexture(label string, width, height, samples int) (*wgpu.Texture, *wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if samples < 1 {
		samples = 1
	}

	// The resolve texture is always single-sampled; multisampling is handled
	// by the transient MSAA texture created in BeginTargetFrame.
	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        *b.surfaceFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, err
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, err
	}

	return texture, view, nil
}

func (b *wgpuRendererBackendImpl) ApplyScreenPass(target RenderTarget, p pipeline.Pipeline) error {
	srcView := target.TextureView()
	if srcView == nil {
		return fmt.Errorf("render target %q has no texture view to filter", target.Name())
	}
	gpuPipeline := p.GPUPipeline()
	if gpuPipeline == nil {
		return fmt.Errorf("pipeline %q has no GPU pipeline registered", p.PipelineKey())
	}

	dstTexture, dstView, err := b.CreateTargetTexture(target.Name()+" "+p.PipelineKey(), target.Width(), target.Height(), 1)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         p.PipelineKey() + " Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		dstView.Release()
		dstTexture.Release()
		return err
	}
	defer sampler.Release()

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.PipelineKey() + " Bind Group",
		Layout: gpuPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: srcView},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		dstView.Release()
		dstTexture.Release()
		return err
	}
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		dstView.Release()
		dstTexture.Release()
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: p.PipelineKey() + " Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       dstView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(gpuPipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	// Full-screen triangle generated from the vertex index; no vertex buffer.
	pass.Draw(3, 1, 0, 0)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		dstView.Release()
		dstTexture.Release()
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	target.ReplaceTexture(dstTexture, dstView)
	return nil
}

func (b *wgpuRendererBackendImpl) ReadTexturePixels(target RenderTarget) (common.PixelData, error) {
	texture := target.Texture()
	if texture == nil {
		return common.PixelData{}, fmt.Errorf("render target %q has no texture to read", target.Name())
	}

	width := target.Width()
	height := target.Height()
	rowBytes := width * 4
	paddedRowBytes := (rowBytes + readbackRowAlignment - 1) &^ (readbackRowAlignment - 1)
	bufferSize := uint64(paddedRowBytes * height)

	b.mu.Lock()
	readBuffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: target.Name() + " Readback Buffer",
		Size:  bufferSize,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		b.mu.Unlock()
		return common.PixelData{}, err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		readBuffer.Release()
		b.mu.Unlock()
		return common.PixelData{}, err
	}

	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: readBuffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(paddedRowBytes),
				RowsPerImage: uint32(height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		readBuffer.Release()
		b.mu.Unlock()
		return common.PixelData{}, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	format := *b.surfaceFormat
	b.mu.Unlock()

	// Map asynchronously, then drive the device until the map callback fires.
	var status wgpu.BufferMapAsyncStatus
	err = readBuffer.MapAsync(wgpu.MapModeRead, 0, bufferSize, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		readBuffer.Release()
		return common.PixelData{}, err
	}
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		readBuffer.Unmap()
		readBuffer.Release()
		return common.PixelData{}, fmt.Errorf("buffer map failed with status %v", status)
	}

	mapped := readBuffer.GetMappedRange(0, uint(bufferSize))

	// Strip per-row alignment padding into tightly packed pixels.
	pixels := make([]byte, rowBytes*height)
	for row := 0; row < height; row++ {
		src := mapped[row*paddedRowBytes : row*paddedRowBytes+rowBytes]
		copy(pixels[row*rowBytes:], src)
	}

	readBuffer.Unmap()
	readBuffer.Release()

	// Surface formats are commonly BGRA; normalize to RGBA so every consumer
	// (resize, encode) sees one layout.
	if format == wgpu.TextureFormatBGRA8Unorm || format == wgpu.TextureFormatBGRA8UnormSrgb {
		for i := 0; i < len(pixels); i += 4 {
			pixels[i], pixels[i+2] = pixels[i+2], pixels[i]
		}
	}

	return common.PixelData{
		Pixels: pixels,
		Width:  width,
		Height: height,
		Format: wgpu.TextureFormatRGBA8Unorm,
	}, nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(vertexData, indexData []byte) (*wgpu.Buffer, *wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vertexBuffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, nil, err
	}
	b.queue.WriteBuffer(vertexBuffer, 0, vertexData)

	indexBuffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		vertexBuffer.Release()
		return nil, nil, err
	}
	b.queue.WriteBuffer(indexBuffer, 0, indexData)

	return vertexBuffer, indexBuffer, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(buf, offset, data)
}
