package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/san-kum/inertial/internal/export"
	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/storage"
	"github.com/spf13/cobra"
)

var (
	plotShip  string
	plotVars  []string
	exportOut string
	svgPlane  string
	svgSize   int
)

func runCommands() []*cobra.Command {
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotShip, "ship", "", "ship to plot (default: every ship)")
	plotCmd.Flags().StringSliceVar(&plotVars, "vars", []string{"speed", "px", "py", "pz"},
		"columns to plot: speed or one of "+fmt.Sprint(physics.VectorLabels))

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and trajectories as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&plotShip, "ship", "", "only this ship")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw run trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	exportSVGCmd.Flags().StringVar(&svgPlane, "plane", "xy", "projection plane (xy, xz, yz)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")

	return []*cobra.Command{plotCmd, exportCmd, exportCSVCmd, exportSVGCmd}
}

func sortedKeys(m map[string]float64) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func loadTracks(runID string) (*storage.RunMetadata, []*storage.Track, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tracks, err := st.LoadTracks(runID)
	if err != nil {
		return nil, nil, err
	}
	if plotShip != "" {
		tracks = lo.Filter(tracks, func(t *storage.Track, _ int) bool { return t.Ship == plotShip })
		if len(tracks) == 0 {
			return nil, nil, errors.Errorf("run %s has no ship %q (ships: %v)", runID, plotShip, meta.Ships)
		}
	}
	return meta, tracks, nil
}

// column extracts a plotted series; speed is derived from the velocity columns.
func column(t *storage.Track, name string) ([]float64, error) {
	if name == "speed" {
		vx, vy, vz := t.Column("vx"), t.Column("vy"), t.Column("vz")
		out := make([]float64, len(vx))
		for i := range vx {
			out[i] = math.Sqrt(vx[i]*vx[i] + vy[i]*vy[i] + vz[i]*vz[i])
		}
		return out, nil
	}
	data := t.Column(name)
	if data == nil {
		return nil, errors.Errorf("unknown column %q", name)
	}
	return data, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, tracks, err := loadTracks(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)

	for _, t := range tracks {
		if len(t.States) < 2 {
			continue
		}
		fmt.Printf("\n%s (%d samples)\n\n", t.Ship, len(t.States))
		for _, v := range plotVars {
			data, err := column(t, v)
			if err != nil {
				return err
			}
			graph := asciigraph.Plot(data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("%s %s vs time", t.Ship, v)),
			)
			fmt.Println(graph)
			fmt.Println()
		}
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if exportOut != "" {
		return st.ExportFile(exportOut, args[0])
	}
	return st.Export(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tracks, err := loadTracks(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	header := append([]string{"time", "ship"}, physics.VectorLabels...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range tracks {
		for i, state := range t.States {
			row := []string{strconv.FormatFloat(t.Times[i], 'f', 6, 64), t.Ship}
			for _, val := range state {
				row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	plane, err := export.ParsePlane(svgPlane)
	if err != nil {
		return err
	}
	_, tracks, err := loadTracks(args[0])
	if err != nil {
		return err
	}
	svg, err := export.TrajectorySVG(tracks, plane, svgSize, svgSize)
	if err != nil {
		return err
	}
	if exportOut == "" {
		_, err = fmt.Println(svg)
		return err
	}
	return errors.Wrap(os.WriteFile(exportOut, []byte(svg), 0644), "write svg")
}
