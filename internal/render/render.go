package render

import (
	"fmt"
	"sync"

	"github.com/duskforge/spectra/internal/imagebuf"
	"github.com/duskforge/spectra/internal/integrator"
	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/tracer"
	"github.com/duskforge/spectra/internal/vmath"
)

// RenderImage drives the whole render: it tiles the crop rectangle into
// Hilbert-ordered buckets, fans them out across cfg.Threads worker
// goroutines over a buffered job channel, and accumulates every sample
// into img (spec.md §4.5, §5). It blocks until every bucket is done and
// returns the merged run statistics.
func RenderImage(root *scene.Assembly, world *scene.World, cam Camera, img *imagebuf.Image, cfg Config) Stats {
	cfg.Normalize()

	bucketSize := ComputeBucketSize(cfg.SPP, cfg.MaxSamplesPerBucket)
	buckets := GenerateBuckets(cfg.CropX0, cfg.CropY0, cfg.CropX1, cfg.CropY1, bucketSize)

	jobs := make(chan Bucket, len(buckets))
	for _, b := range buckets {
		jobs <- b
	}
	close(jobs) // all_jobs_queued: workers drain and exit, no further sends

	totalPixels := (cfg.CropX1 - cfg.CropX0) * (cfg.CropY1 - cfg.CropY0)
	progress := newProgressCounter(totalPixels)
	stats := &Stats{}

	var wg sync.WaitGroup
	for w := 0; w < cfg.Threads; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			var rays, paths uint64
			for b := range jobs {
				renderBucket(b, root, world, cam, img, cfg, progress, &rays, &paths)
				stats.bucketDone()
			}
			stats.mergeWorker(workerID, rays, paths)
		}(w)
	}
	wg.Wait()
	return *stats
}

// inFlightSample pairs one LightPath with the ray it is currently waiting
// on a tracer result for.
type inFlightSample struct {
	path *integrator.LightPath
	ray  vmath.Ray
}

// renderBucket renders every pixel x sample in b. Rather than driving one
// LightPath to completion before starting the next, it keeps every
// in-flight sample's ray live at once and steps them in lockstep: each
// round traces the whole live batch through the tracer together, then
// two-array-compacts the live set, moving paths whose path wishes to
// continue into the prefix and dropping (crediting) terminated ones
// (spec.md §4.5 step 2). Accumulation into img happens under one lease,
// then progress or the serialized-output payload is reported.
func renderBucket(b Bucket, root *scene.Assembly, world *scene.World, cam Camera, img *imagebuf.Image, cfg Config, progress *progressCounter, rays, paths *uint64) {
	lease := img.GetBucket(b.X0, b.Y0, b.X1, b.Y1)
	defer lease.Close()

	sampler := integrator.NewSampler(cfg.Seed)

	live := make([]inFlightSample, 0, (b.X1-b.X0)*(b.Y1-b.Y0)*cfg.SPP)
	for y := b.Y0; y < b.Y1; y++ {
		for x := b.X0; x < b.X1; x++ {
			for s := 0; s < cfg.SPP; s++ {
				path, ray := newCameraLightPath(x, y, s, cfg, cam, sampler)
				live = append(live, inFlightSample{path, ray})
			}
		}
	}

	batchRays := make([]vmath.Ray, 0, len(live))
	for len(live) > 0 {
		batchRays = batchRays[:0]
		for _, in := range live {
			batchRays = append(batchRays, in.ray)
		}
		isects := tracer.Trace(root, batchRays)
		*rays += uint64(len(batchRays))

		n := 0
		for i, in := range live {
			next, hasNext := integrator.Advance(in.path, in.ray, isects[i], world, sampler)
			if in.path.Done {
				c := spectral.OfSample(in.path.Color, in.path.Wavelength).Scale(1.0 / float64(cfg.SPP))
				lease.Add(in.path.PixelX, in.path.PixelY, c)
				*paths++
				continue
			}
			if !hasNext {
				continue
			}
			live[n] = inFlightSample{in.path, next}
			n++
		}
		live = live[:n]
	}

	if cfg.SerializedOutput {
		payload := lease.RGBABase64(imagebuf.XYZToSRGB)
		fmt.Printf("BUCKET %d %d %d %d %s\n", b.X0, b.Y0, b.X1, b.Y1, payload)
		return
	}

	n := (b.X1 - b.X0) * (b.Y1 - b.Y0)
	if percent, changed := progress.add(n); changed {
		fmt.Printf("%d%%\n", percent)
	}
}

// newCameraLightPath starts a fresh LightPath for pixel (x,y), sample
// index s, generating its initial camera ray through cam.
func newCameraLightPath(x, y, s int, cfg Config, cam Camera, sampler integrator.Sampler) (*integrator.LightPath, vmath.Ray) {
	base := integrator.SampleOffset(x, y, cfg.Seed, uint64(s))

	ndcX := 2*(float64(x)+0.5)/float64(cfg.Width) - 1
	ndcY := 1 - 2*(float64(y)+0.5)/float64(cfg.Height)

	return integrator.NewLightPath(x, y, base, sampler, cfg.MaxBounces,
		func(lensU, lensV, timeU, wavU, filterX, filterY float64) (vmath.Ray, float64) {
			jx := ndcX + (filterX-0.5)*2/float64(cfg.Width)
			jy := ndcY + (filterY-0.5)*2/float64(cfg.Height)
			return cam.GenerateRay(jx, jy, lensU, lensV, timeU, wavU)
		})
}
