package main

import (
	"fmt"
	"os"

	"PhyChain/internal/utils"
	"PhyChain/pkg/pipeline"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"
)

var (
	modulationFlag = cli.StringFlag{
		Name:  "modulation",
		Usage: "bpsk, qpsk, 16qam, 64qam or 256qam",
		Value: "qpsk",
	}
	channelFlag = cli.StringFlag{
		Name:  "channel",
		Usage: "awgn, rayleigh, rician or frequency_selective",
		Value: "awgn",
	}
	ofdmFlag = cli.BoolFlag{
		Name:  "ofdm",
		Usage: "Use the multicarrier waveform instead of the simplified model",
	}
	snrStartFlag = cli.Float64Flag{
		Name:  "snr-start",
		Usage: "First SNR in dB",
		Value: 0,
	}
	snrStopFlag = cli.Float64Flag{
		Name:  "snr-stop",
		Usage: "Last SNR in dB",
		Value: 20,
	}
	snrStepFlag = cli.Float64Flag{
		Name:  "snr-step",
		Usage: "SNR step in dB",
		Value: 2,
	}
	trialsFlag = cli.IntFlag{
		Name:  "trials",
		Usage: "Random payloads per SNR",
		Value: 10,
	}
	bytesFlag = cli.IntFlag{
		Name:  "bytes",
		Usage: "Payload size per trial",
		Value: 1000,
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Usage: "Seed of the first SNR point",
		Value: 1,
	}
	csvFlag = cli.StringFlag{
		Name:  "csv",
		Usage: "Also write snr,mean,std lines to this file",
	}

	sweepCommand = cli.Command{
		Action: sweep,
		Name:   "sweep",
		Usage:  "Measure the bit error rate over a range of SNR",
		Flags: []cli.Flag{
			modulationFlag, channelFlag, ofdmFlag,
			snrStartFlag, snrStopFlag, snrStepFlag,
			trialsFlag, bytesFlag, seedFlag, csvFlag,
		},
	}
)

func sweep(ctx *cli.Context) error {
	points, err := pipeline.Sweep(pipeline.SweepConfig{
		Modulation: ctx.String(modulationFlag.Name),
		Channel:    ctx.String(channelFlag.Name),
		Simplified: !ctx.Bool(ofdmFlag.Name),
		SNRs:       pipeline.SNRRange(ctx.Float64(snrStartFlag.Name), ctx.Float64(snrStopFlag.Name), ctx.Float64(snrStepFlag.Name)),
		Trials:     ctx.Int(trialsFlag.Name),
		Bytes:      ctx.Int(bytesFlag.Name),
		Seed:       ctx.Uint64(seedFlag.Name),
	})
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"SNR (dB)", "BER", "Std", "Trials"})
	for _, p := range points {
		table.Append([]string{
			fmt.Sprintf("%.1f", p.SNRdB),
			fmt.Sprintf("%.3e", p.MeanBER),
			fmt.Sprintf("%.1e", p.StdBER),
			fmt.Sprint(p.Trials),
		})
	}
	table.Render()

	if filename := ctx.String(csvFlag.Name); filename != "" {
		return utils.WriteLines(filename, points, func(p pipeline.SweepPoint) string {
			return fmt.Sprintf("%g,%g,%g", p.SNRdB, p.MeanBER, p.StdBER)
		})
	}
	return nil
}
