package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"PhyChain/cmd/phychain/config"
	"PhyChain/internal/utils"
	"PhyChain/pkg/pipeline"
	"PhyChain/pkg/recovery"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"
)

var (
	inputFlag = cli.StringFlag{
		Name:  "input",
		Usage: "Image to send",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "Where the recovered image is written as PNG",
		Value: "recovered.png",
	}
	dumpSymbolsFlag = cli.StringFlag{
		Name:  "dump-symbols",
		Usage: "Write the equalized received symbols as little-endian complex128",
	}
	outputDirFlag = cli.StringFlag{
		Name:  "output-dir",
		Usage: "Directory the recovered images are written to",
		Value: ".",
	}

	simulateCommand = cli.Command{
		Action: simulate,
		Name:   "simulate",
		Usage:  "Send one image through the chain",
		Flags:  []cli.Flag{inputFlag, outputFlag, dumpSymbolsFlag},
	}
	batchCommand = cli.Command{
		Action:    batch,
		Name:      "batch",
		Usage:     "Send many images in parallel",
		ArgsUsage: "<image> [image...]",
		Flags:     []cli.Flag{outputDirFlag},
	}
)

func loadImage(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return img, nil
}

func writeImage(filename string, img image.Image) error {
	data, err := recovery.PNG{}.Encode(img)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func simulate(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if !ctx.IsSet(inputFlag.Name) {
		return cli.NewExitError("simulate: --input is required", 2)
	}
	img, err := loadImage(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}

	metrics := pipeline.NewMetrics()
	p, err := config.CreatePipeline(cfg, 0, metrics)
	if err != nil {
		return err
	}
	report, err := p.ProcessImage(img)
	if err != nil {
		return err
	}

	if err := writeImage(ctx.String(outputFlag.Name), report.Result.Image); err != nil {
		return err
	}
	if dump := ctx.String(dumpSymbolsFlag.Name); dump != "" {
		if err := utils.WriteBinary(dump, p.System.LastTransmission().Received); err != nil {
			return err
		}
	}

	printReports([]string{ctx.String(inputFlag.Name)}, []pipeline.Report{report})
	return pushMetrics(ctx, cfg, metrics, report.RunID)
}

func batch(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	names := []string(ctx.Args())
	if len(names) == 0 {
		return cli.NewExitError("batch: no images given", 2)
	}

	images := make([]image.Image, len(names))
	for i, name := range names {
		if images[i], err = loadImage(name); err != nil {
			return err
		}
	}

	metrics := pipeline.NewMetrics()
	reports, err := pipeline.RunBatch(context.Background(), images, func(i int) (*pipeline.Pipeline, error) {
		return config.CreatePipeline(cfg, i, metrics)
	}, cfg.Pipeline.Workers)
	if err != nil {
		return err
	}

	dir := ctx.String(outputDirFlag.Name)
	for i, name := range names {
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		if err := writeImage(filepath.Join(dir, base+"_recovered.png"), reports[i].Result.Image); err != nil {
			return err
		}
	}

	printReports(names, reports)
	return pushMetrics(ctx, cfg, metrics, uuid.NewString())
}

func printReports(names []string, reports []pipeline.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Image", "BER", "Compressed", "Framed", "Compression", "Unresolved", "Header", "Decoded", "Repaired", "Recovery"})
	for i, r := range reports {
		diag := r.Result.Diagnostics
		table.Append([]string{
			filepath.Base(names[i]),
			fmt.Sprintf("%.3g", r.BER),
			fmt.Sprint(r.CompressedBytes),
			fmt.Sprint(r.FramedBytes),
			fmt.Sprintf("%.1f", r.CompressionRatio),
			fmt.Sprint(diag.UnresolvedBytes),
			diag.HeaderSource.String(),
			fmt.Sprint(r.Result.Success),
			fmt.Sprint(r.Result.Repair.Applied),
			fmt.Sprintf("%.2f", r.RecoveryRatio),
		})
	}
	table.Render()
}
