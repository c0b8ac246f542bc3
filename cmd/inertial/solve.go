package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/maneuver"
	"github.com/spf13/cobra"
)

var (
	ownPos, ownVel       []float64
	targetPos, targetVel []float64
	solveSpeed           float64
	standoff             float64
	maxDecel             float64
	horizon              float64
	planStep             float64
	planRows             int
)

func solveCommand() *cobra.Command {
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve a maneuver between two straight-line bodies",
	}
	solveCmd.PersistentFlags().Float64SliceVar(&ownPos, "own-pos", []float64{0, 0, 0}, "own position x,y,z")
	solveCmd.PersistentFlags().Float64SliceVar(&ownVel, "own-vel", []float64{0, 0, 0}, "own velocity x,y,z")
	solveCmd.PersistentFlags().Float64SliceVar(&targetPos, "target-pos", []float64{1000, 0, 0}, "target position x,y,z")
	solveCmd.PersistentFlags().Float64SliceVar(&targetVel, "target-vel", []float64{0, 0, 0}, "target velocity x,y,z")
	solveCmd.PersistentFlags().Float64Var(&horizon, "horizon", 600, "time horizon (s)")
	solveCmd.PersistentFlags().Float64Var(&planStep, "step", maneuver.DefaultPlanStep, "plan sample step (s)")
	solveCmd.PersistentFlags().IntVar(&planRows, "rows", 12, "plan samples to print")

	approachCmd := &cobra.Command{
		Use:   "approach",
		Short: "closest approach and closing-speed profile to a standoff",
		Args:  cobra.NoArgs,
		RunE:  solveApproach,
	}
	approachCmd.Flags().Float64Var(&standoff, "standoff", 20, "standoff distance (m)")
	approachCmd.Flags().Float64Var(&maxDecel, "max-decel", 0.4, "braking acceleration available (m/s²)")

	interceptCmd := &cobra.Command{
		Use:   "intercept",
		Short: "straight-line intercept course at a fixed speed",
		Args:  cobra.NoArgs,
		RunE:  solveIntercept,
	}
	interceptCmd.Flags().Float64Var(&solveSpeed, "speed", 50, "own speed along the course (m/s)")

	solveCmd.AddCommand(approachCmd, interceptCmd)
	return solveCmd
}

func vec(name string, v []float64) (r3.Vector, error) {
	if len(v) != 3 {
		return r3.Vector{}, errors.Wrapf(dynamo.ErrDimensionMismatch, "--%s wants 3 components, got %d", name, len(v))
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

func solveBodies() (own, target maneuver.Kinematics, err error) {
	if own.Position, err = vec("own-pos", ownPos); err != nil {
		return
	}
	if own.Velocity, err = vec("own-vel", ownVel); err != nil {
		return
	}
	if target.Position, err = vec("target-pos", targetPos); err != nil {
		return
	}
	target.Velocity, err = vec("target-vel", targetVel)
	return
}

func fmtVec(v r3.Vector) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

func solveApproach(cmd *cobra.Command, args []string) error {
	own, target, err := solveBodies()
	if err != nil {
		return err
	}

	ca := maneuver.ClosestApproach(own, target)
	fmt.Printf("closest approach: %.3f m at t=%.3f s\n", ca.Distance, ca.Time)
	if t, ok := maneuver.TimeToRange(own, target, standoff); ok {
		fmt.Printf("coasting reaches %.1f m at t=%.3f s\n", standoff, t)
	} else {
		fmt.Printf("coasting never comes within %.1f m\n", standoff)
	}

	plan := maneuver.ApproachPlan(own, target, standoff, maxDecel, maneuver.DefaultApproachConfig(), planStep, horizon)
	fmt.Printf("\nplan: %d samples, %.1f s\n", plan.Len(), plan.Duration())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tGAP\tCLOSING\tVELOCITY")
	for i, sp := range plan.All() {
		if i >= planRows {
			break
		}
		closing := sp.Velocity.Sub(target.Velocity).Norm()
		fmt.Fprintf(w, "%.1f\t%.2f\t%.3f\t%s\n", sp.Time, sp.Range, closing, fmtVec(sp.Velocity))
	}
	return w.Flush()
}

func solveIntercept(cmd *cobra.Command, args []string) error {
	own, target, err := solveBodies()
	if err != nil {
		return err
	}

	sol, err := maneuver.Intercept(own.Position, target, solveSpeed, horizon)
	if errors.Is(err, dynamo.ErrUnreachable) {
		fmt.Printf("unreachable: %v\n", err)
		ca := maneuver.ClosestApproach(own, target)
		fmt.Printf("coasting closest approach: %.3f m at t=%.3f s\n", ca.Distance, ca.Time)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("intercept at t=%.3f s\n", sol.Time)
	fmt.Printf("point:     %s\n", fmtVec(sol.Point))
	fmt.Printf("heading:   %s\n", fmtVec(sol.Direction))
	fmt.Printf("velocity:  %s\n", fmtVec(sol.Velocity))

	aim := maneuver.LeadAim(own.Position, target, solveSpeed)
	_, angle := maneuver.Alignment(r3.Vector{X: 1}, aim)
	fmt.Printf("turn from +X: %.2f°\n", angle*180/math.Pi)
	return nil
}
