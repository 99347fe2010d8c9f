package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"servoarm/arm/trajectory"
)

func plotCommand() *cli.Command {
	return &cli.Command{
		Name:  "plot",
		Usage: "Render the planned profile of one joint move to a PNG",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "from",
				Usage: "Start angle in degrees",
				Value: 90,
			},
			&cli.Float64Flag{
				Name:  "to",
				Usage: "Target angle in degrees",
				Value: 180,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output PNG file",
				Value:   "profile.png",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			limits := trajectory.LimitsFromConfig(cfg.Motion)
			p := trajectory.NewProfile(limits, cmd.Float64("from"))
			if err := p.Plan(cmd.Float64("from"), cmd.Float64("to")); err != nil {
				return err
			}

			out := cmd.String("out")
			if err := saveProfilePlot(p, out); err != nil {
				return err
			}
			fmt.Printf("t1=%.0fms t2=%.0fms peak=%.1fdeg/s -> %s\n", p.T1, p.T2, p.PeakSpeed, out)
			return nil
		},
	}
}

// profileSeries samples p every step milliseconds over the whole move
func profileSeries(p *trajectory.Profile, step float64) plotter.XYs {
	tf := p.Limits.TotalDuration
	n := int(tf/step) + 1

	pts := make(plotter.XYs, 0, n+1)
	for i := 0; i < n; i++ {
		t := float64(i) * step
		pts = append(pts, plotter.XY{X: t, Y: p.Sample(t)})
	}
	if last := pts[len(pts)-1].X; last < tf {
		pts = append(pts, plotter.XY{X: tf, Y: p.Sample(tf)})
	}
	return pts
}

func saveProfilePlot(p *trajectory.Profile, filename string) error {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%.0f -> %.0f deg", p.AngleAtStart, p.AngleAtEnd)
	pl.X.Label.Text = "time (ms)"
	pl.Y.Label.Text = "angle (deg)"

	line, err := plotter.NewLine(profileSeries(p, 10))
	if err != nil {
		return errors.Wrap(err, "could not build profile line")
	}
	line.LineStyle.Width = vg.Points(2)
	pl.Add(line, plotter.NewGrid())

	phases, err := plotter.NewScatter(plotter.XYs{
		{X: p.T1, Y: p.AngleAtT1},
		{X: p.T2, Y: p.AngleAtT2},
	})
	if err != nil {
		return errors.Wrap(err, "could not mark phase boundaries")
	}
	pl.Add(phases)

	if err := pl.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "could not write %s", filename)
	}
	return nil
}
