/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/notargets/spectralns/dataset"
	"github.com/notargets/spectralns/model_problems/NavierStokes2D"
)

// InspectCmd represents the inspect command
var InspectCmd = &cobra.Command{
	Use:   "inspect <file.npy>",
	Short: "Summarize a generated dataset file",
	Long: `
Reads a (num, 2, N, N) float32 dataset and reports its shape with the energy
of every initial and evolved field.

spectralns inspect data/navier_stokes.npy --chart`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		chart, _ := cmd.Flags().GetBool("chart")
		limit, _ := cmd.Flags().GetInt("limit")
		if err := Inspect(args[0], limit, chart); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(InspectCmd)
	InspectCmd.Flags().BoolP("chart", "c", false, "draw the evolved to initial energy ratio per sample")
	InspectCmd.Flags().IntP("limit", "l", 10, "number of samples listed individually")
}

type SampleSummary struct {
	InitialEnergy, EvolvedEnergy float64
	InitialMax, EvolvedMax       float64
	InitialMean, EvolvedMean     float64 // Mean vorticity is conserved by the solver
}

// Summarize computes per-sample energies, peak magnitudes and means.
func Summarize(a dataset.Array) (sums []SampleSummary, err error) {
	if len(a.Shape) == 0 {
		err = fmt.Errorf("empty array")
		return
	}
	sums = make([]SampleSummary, a.Shape[0])
	for k := range sums {
		var s dataset.Sample
		if s, err = a.Sample(k); err != nil {
			return
		}
		sums[k] = SampleSummary{
			InitialEnergy: s.Initial.Energy(),
			EvolvedEnergy: s.Evolved.Energy(),
			InitialMax:    NavierStokes2D.MaxAbs(s.Initial),
			EvolvedMax:    NavierStokes2D.MaxAbs(s.Evolved),
			InitialMean:   s.Initial.Mean(),
			EvolvedMean:   s.Evolved.Mean(),
		}
	}
	return
}

func Inspect(fileName string, limit int, chart bool) (err error) {
	var (
		a    dataset.Array
		sums []SampleSummary
		fi   os.FileInfo
	)
	if fi, err = os.Stat(fileName); err != nil {
		return
	}
	if a, err = dataset.ReadArrayFile(fileName); err != nil {
		return fmt.Errorf("reading %s: %w", fileName, err)
	}
	if sums, err = Summarize(a); err != nil {
		return
	}
	fmt.Printf("%s\n", fileName)
	fmt.Printf("%v\t\t= Shape\n", a.Shape)
	fmt.Printf("%s\t\t= Size\n", humanize.Bytes(uint64(fi.Size())))
	if len(sums) == 0 {
		return
	}
	ratio := make([]float64, len(sums))
	for k, s := range sums {
		if s.InitialEnergy > 0 {
			ratio[k] = s.EvolvedEnergy / s.InitialEnergy
		}
	}
	fmt.Printf("%8s %14s %14s %10s %10s %11s %11s\n",
		"sample", "E initial", "E evolved", "max|w0|", "max|w|", "mean w0", "mean w")
	for k, s := range sums {
		if k >= limit {
			fmt.Printf("... %s more\n", humanize.Comma(int64(len(sums)-limit)))
			break
		}
		fmt.Printf("%8d %14.6e %14.6e %10.4f %10.4f %11.3e %11.3e\n",
			k, s.InitialEnergy, s.EvolvedEnergy, s.InitialMax, s.EvolvedMax,
			s.InitialMean, s.EvolvedMean)
	}
	if chart {
		fmt.Println(asciigraph.Plot(ratio,
			asciigraph.Height(10), asciigraph.Width(60),
			asciigraph.Caption("evolved / initial energy per sample")))
	}
	return
}
