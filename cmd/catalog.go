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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/notargets/spectralns/catalog"
)

// CatalogCmd represents the catalog command
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the catalog of generated datasets",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged runs, oldest first",
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("catalogPath")
		if err := ListCatalog(context.Background(), os.Stdout, path); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(CatalogCmd)
	CatalogCmd.AddCommand(catalogListCmd)
	catalogListCmd.Flags().String("catalogPath", "spectralns.db", "sqlite catalog file")
}

func ListCatalog(ctx context.Context, w io.Writer, path string) (err error) {
	var (
		store = catalog.NewSQLiteStore(path)
		runs  []catalog.Run
	)
	if _, err = os.Stat(path); err != nil {
		return fmt.Errorf("no catalog at %s: %w", path, err)
	}
	if err = store.Init(ctx); err != nil {
		return
	}
	defer store.Close()
	if runs, err = store.ListRuns(ctx); err != nil {
		return
	}
	for _, run := range runs {
		ip := run.Params
		fmt.Fprintf(w, "%s  %-24q N=%-4d samples=%-6d test=%-5d ν=%-8.2e dt=%-8.2e steps=%-5d %8s  %s\n",
			run.ID, run.Title, ip.Resolution, run.NumSamples, run.NumTest,
			ip.Viscosity, ip.TimeStep, ip.StepsPerSample,
			humanize.Bytes(uint64(run.Bytes)), humanize.Time(run.CreatedAt))
	}
	return
}
