package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"servoarm/arm"
	"servoarm/arm/kinematics"
	"servoarm/arm/trajectory"
)

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "Solve a cartesian pose and check it with forward kinematics",
		ArgsUsage: "X Y Z",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "yaw",
				Usage: "Tool yaw in degrees",
			},
			&cli.Float64Flag{
				Name:  "pitch",
				Usage: "Tool pitch in degrees",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 3 {
				return errors.New("expected X Y Z in millimeters")
			}

			var pos [3]float64
			for i := range pos {
				v, err := strconv.ParseFloat(cmd.Args().Get(i), 64)
				if err != nil {
					return errors.Wrapf(err, "bad coordinate %q", cmd.Args().Get(i))
				}
				pos[i] = v
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			solver, err := kinematics.NewSolver(cfg)
			if err != nil {
				return err
			}

			target := arm.CartesianTarget{
				X: pos[0], Y: pos[1], Z: pos[2],
				Yaw:   cmd.Float64("yaw"),
				Pitch: cmd.Float64("pitch"),
			}
			return printSolution(os.Stdout, cfg, solver, target)
		},
	}
}

// printSolution writes the joint values for target, the servo angles they
// round to and the pose those servo angles actually reach
func printSolution(w io.Writer, cfg *arm.ArmConfig, solver *kinematics.Solver, target arm.CartesianTarget) error {
	joints, err := solver.Solve(target)
	if err != nil {
		return err
	}

	var servo arm.JointAngles
	for _, id := range arm.AllAxes {
		axis := cfg.Axis(id)
		deg := trajectory.Round(joints.Get(id))
		servo[id.Index()] = float64(deg)
		fmt.Fprintf(w, "%-13s %8.3f -> %3d  [0, %d]\n", axis.Name, joints.Get(id), deg, axis.Range)
	}

	reached := solver.Forward(servo)
	fmt.Fprintf(w, "reached       x=%.1f y=%.1f z=%.1f yaw=%.1f pitch=%.1f\n",
		reached.X, reached.Y, reached.Z, reached.Yaw, reached.Pitch)
	return nil
}
