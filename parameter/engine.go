package parameter

import "time"

// Scheduler Timing
const (
	// WaitTimeout bounds a blocking submit to the owner queue so a stalled owner cannot deadlock the background worker
	WaitTimeout = 30 * time.Second

	// TerminateTimeout bounds the drain loop of a terminating scheduler
	TerminateTimeout = 5 * time.Second

	// TerminatePollInterval is the sleep between drain attempts while terminating
	TerminatePollInterval = 10 * time.Millisecond

	// BackgroundPollTimeout is how long the worker blocks on an empty queue before re-checking its running flag
	BackgroundPollTimeout = 100 * time.Millisecond

	// SignalPoolSize is the number of wait signals pre-allocated by a scheduler
	SignalPoolSize = 4
)

// Generation Limits
const (
	// MinGenerations is the lowest recursion depth a bolt can request
	MinGenerations = 1

	// MaxGenerations is the highest recursion depth a bolt can request
	MaxGenerations = 8
)

// Geometry Limits
const (
	// MaxVerticesPerBatch is the addressable vertex count of a 16-bit index buffer
	MaxVerticesPerBatch = 1 << 16

	// MaxQuadsPerBatch caps quads in one batch: 4 vertices per quad
	MaxQuadsPerBatch = MaxVerticesPerBatch / 4

	// BoundsPadding is added on every side of the sampled bounds at commit
	BoundsPadding = 2

	// BoundsGrowth scales committed bounds to cover animation past sampled points
	BoundsGrowth = 1.2

	// MaxColorIntensity is the top of the 0-10 intensity scale mapped onto vertex alpha
	MaxColorIntensity = 10.0
)

// Light Limits
const (
	// MaxLightCount caps lights across every active instance
	MaxLightCount = 128

	// MaxLightsPerInstance is split evenly across an instance's parameter sets
	MaxLightsPerInstance = 8
)

// Effect Timing
const (
	// Epsilon is the threshold below which glow, LOD distance and light inputs count as disabled
	Epsilon = 1e-6

	// DestinationBurstDelayFraction is the fraction of life after which the destination burst fires
	DestinationBurstDelayFraction = 0.8

	// LODGenerationCap bounds the generation reduction applied by level of detail
	LODGenerationCap = 8
)
