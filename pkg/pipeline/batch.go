package pipeline

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

// Factory builds the pipeline for image index. Each call must return a
// pipeline with its own transceiver.
type Factory func(index int) (*Pipeline, error)

// RunBatch processes images on at most workers goroutines. Reports keep
// the order of images.
func RunBatch(ctx context.Context, images []image.Image, factory Factory, workers int) ([]Report, error) {
	reports := make([]Report, len(images))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := factory(i)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			r, err := p.ProcessImage(img)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
